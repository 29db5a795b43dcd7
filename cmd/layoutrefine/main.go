// cmd/layoutrefine/main.go
package main

import (
	"layoutrefine/internal/app"
	"layoutrefine/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
