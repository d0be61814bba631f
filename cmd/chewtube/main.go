// Command chewtube runs the chew-gated video server.
package main

func main() {
	Execute()
}
