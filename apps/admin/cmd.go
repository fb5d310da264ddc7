package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/nwschool/clubreg/core"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf *core.Config
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  hashpassword - prompt for the admin password and print its bcrypt hash")
	fmt.Println("  importteachers -file FILE.csv - bulk import teachers (id,name,department[,email])")
	fmt.Println("  export -file FILE.json - download the current state snapshot")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	importCmd := flag.NewFlagSet("importteachers", flag.ExitOnError)
	importFile := importCmd.String("file", "", "CSV file: id,name,department[,email]; a header row is skipped.")

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportFile := exportCmd.String("file", "", "Destination JSON file.")

	switch args[1] {
	case "hashpassword":
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			return errors.New("empty password")
		}
		return cli.hashPassword(pwd)
	case "importteachers":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importTeachers(*importFile)
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportFile == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(*exportFile)
	default:
		cli.printUsage()
		return errHelp
	}
}
