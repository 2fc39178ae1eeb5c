package main

import (
	"go.uber.org/fx"

	"github.com/estateflow/publisher/internal/app"
)

func main() {
	fx.New(app.CreateApp()).Run()
}
