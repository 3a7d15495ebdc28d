package main

import "paystream/internal/app/server"

func main() {
	server.Run()
}
