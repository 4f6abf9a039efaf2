package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"tilecanvas/internal/logx"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/shiena/ansicolor"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log *logrus.Logger

// InitLog sets up the command line logger and hands it to the library
// packages.
func InitLog(level string) {
	log = logrus.New()
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		FieldsOrder:     []string{"component"},
	})

	var logIO []io.Writer
	if logDir := conf.Output.LogDir; logDir != "" {
		if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
			fmt.Fprintf(os.Stderr, "create log dir(%s) error, details: %s\n", logDir, err)
		} else {
			logIO = append(logIO, &lumberjack.Logger{
				Filename:   filepath.Join(logDir, "tilecanvas.log"),
				MaxSize:    conf.Output.LogMaxSize,
				MaxBackups: conf.Output.LogMaxBackups,
			})
		}
	}
	if conf.Output.OutputTerminal || len(logIO) == 0 {
		logIO = append(logIO, os.Stdout)
	}
	log.SetOutput(ansicolor.NewAnsiColorWriter(io.MultiWriter(logIO...)))

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.SetLevel(logrus.InfoLevel)
	} else {
		log.SetLevel(lvl)
	}
	logx.SetLogger(log)
	dumpConf()
}
