package logger

import (
	"log"
	"os"
)

// New returns a logger writing to path, or to stdout if path is empty.
func New(path string) *log.Logger {
	if len(path) == 0 {
		return log.New(os.Stdout, "MOS ", log.Ldate|log.Ltime|log.Lshortfile)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
	if err != nil {
		log.Fatal(err)
	}
	l := log.New(f, "MOS ", log.Ldate|log.Ltime|log.Lshortfile)
	l.Printf("Initializing mos.log")
	return l
}
