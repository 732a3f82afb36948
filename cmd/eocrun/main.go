// Command eocrun dataizes object graphs and checks regression suites.
package main

func main() {
	Execute()
}
