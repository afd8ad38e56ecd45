package main

import "github.com/CZhakshylykova/SDS-CP030-edu-spend/cmd"

func main() {
	cmd.Execute()
}
