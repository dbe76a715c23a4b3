package main

import "timeoff/internal/app/server"

func main() {
	server.Run()
}
