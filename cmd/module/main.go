package main

import (
	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/module"
	"go.viam.com/rdk/resource"
	generic "go.viam.com/rdk/services/generic"

	"livefen"
)

func main() {
	module.ModularMain(
		resource.APIModel{API: camera.API, Model: livefen.BoardCameraModel},
		resource.APIModel{API: generic.API, Model: livefen.ReaderModel},
	)
}
