// Command zoodubbo invokes Dubbo services and runs a demo provider.
package main

func main() {
	Execute()
}
