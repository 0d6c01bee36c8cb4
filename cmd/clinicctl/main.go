package main

import "github.com/clinicdesk/clinic/cmd/clinicctl/cmd"

func main() {
	cmd.Execute()
}
