package main

import "github.com/saadjs/caltrack/cmd/caltrack"

func main() {
	caltrack.Execute()
}
