// Package main is the entry point for pageblocks.
package main

func main() {
	Execute()
}
