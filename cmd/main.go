package main

import (
	"github.com/kissthedata/floweat/config"
	"github.com/kissthedata/floweat/routes"
	"github.com/kissthedata/floweat/utils"
)

func main() {
	if err := utils.InitLogger(); err != nil {
		panic(err)
	}

	config.InitDB()
	utils.InitS3()

	r := routes.SetupRouter()
	r.Run(":8080")
}
