// Command soimport loads Stack Overflow thread documents from a directory
// into PostgreSQL, one transaction per file.
package main

func main() {
	Execute()
}
