package main

import (
	"newscycle/cmd/handlers"
	"newscycle/internal/logger"
)

func main() {
	logger.Init() // Initialize the logger
	handlers.Execute()
}
