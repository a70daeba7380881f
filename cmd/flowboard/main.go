// Command flowboard runs the board server and talks to it from the shell.
package main

func main() {
	Execute()
}
