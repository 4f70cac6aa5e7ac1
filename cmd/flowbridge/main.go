// Package main is the entry point for FlowBridge, a content-aware
// HTTP webhook router.
package main

func main() {
	Execute()
}
