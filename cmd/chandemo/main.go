// Command chandemo runs classic Go concurrency patterns on lockchan
// channels.
//
//	chandemo [-v] [-pace 1s] <demo>
//
// Run it without arguments to list the demos.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

func main() {
	verbose := flag.Bool("v", false, "log channel lifecycle events")
	pace := flag.Duration("pace", time.Second, "base delay unit of the demos")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: chandemo [flags] <demo>\n\nflags:\n")
		flag.PrintDefaults()
		fmt.Fprintln(flag.CommandLine.Output())
		listDemos(flag.CommandLine.Output())
	}
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	d, ok := lookup(flag.Arg(0))
	if !ok {
		flag.Usage()
		os.Exit(2)
	}

	e := &env{out: os.Stdout, pace: *pace, log: log}
	log.WithField("demo", d.name).Debug("starting")
	if err := d.run(e); err != nil {
		log.WithError(err).WithField("demo", d.name).Fatal("demo failed")
	}
}

func listDemos(w io.Writer) {
	fmt.Fprintln(w, "demos:")
	for _, d := range demos {
		fmt.Fprintf(w, "  %-9s %s\n", d.name, d.about)
	}
}
