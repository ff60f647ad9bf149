//
//Copyright [2016] [SnapRoute Inc]
//
//Licensed under the Apache License, Version 2.0 (the "License");
//you may not use this file except in compliance with the License.
//You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//	 Unless required by applicable law or agreed to in writing, software
//	 distributed under the License is distributed on an "AS IS" BASIS,
//	 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//	 See the License for the specific language governing permissions and
//	 limitations under the License.
//
// _______  __       __________   ___      _______.____    __    ____  __  .___________.  ______  __    __  
// |   ____||  |     |   ____\  \ /  /     /       |\   \  /  \  /   / |  | |           | /      ||  |  |  | 
// |  |__   |  |     |  |__   \  V  /     |   (----` \   \/    \/   /  |  | `---|  |----`|  ,----'|  |__|  | 
// |   __|  |  |     |   __|   >   <       \   \      \            /   |  |     |  |     |  |     |   __   | 
// |  |     |  `----.|  |____ /  .  \  .----)   |      \    /\    /    |  |     |  |     |  `----.|  |  |  | 
// |__|     |_______||_______/__/ \__\ |_______/        \__/  \__/     |__|     |__|      \______||__|  |__| 
//                                                                                                           

// Package logging provides the daemon logger.  It wraps logrus and optionally
// tees output into a lumberjack rotated file.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type FileAppenderOpt struct {
	Filename   string `mapstructure:"filename" yaml:"filename"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

type Writer struct {
	log     *logrus.Logger
	entry   *logrus.Entry
	file    *lumberjack.Logger
	MyName  string
	MyTag   string
	enabled bool
}

// NewLogger creates the logger for a daemon.  name is the process name and
// tag the module tag stamped on every entry.
func NewLogger(name string, tag string, listenToConfig bool) (*Writer, error) {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	w := &Writer{
		log:     l,
		entry:   l.WithFields(logrus.Fields{"proc": name, "module": tag}),
		MyName:  name,
		MyTag:   tag,
		enabled: true,
	}
	if listenToConfig {
		if lvl := os.Getenv(strings.ToUpper(name) + "_LOG_LEVEL"); lvl != "" {
			if err := w.SetLevel(lvl); err != nil {
				return w, err
			}
		}
	}
	return w, nil
}

// AddFileAppender duplicates the output into a rotated log file
func (w *Writer) AddFileAppender(opt FileAppenderOpt) *Writer {
	if opt.Filename == "" {
		return w
	}
	w.file = &lumberjack.Logger{
		Filename:   opt.Filename,
		MaxSize:    opt.MaxSize,    // megabytes
		MaxBackups: opt.MaxBackups, // number of backups
		MaxAge:     opt.MaxAge,     // days
		Compress:   opt.Compress,
	}
	w.log.SetOutput(io.MultiWriter(os.Stdout, w.file))
	return w
}

// SetOutput replaces the output
func (w *Writer) SetOutput(out io.Writer) {
	w.log.SetOutput(out)
}

func (w *Writer) SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %s: %w", level, err)
	}
	w.log.SetLevel(lvl)
	return nil
}

func (w *Writer) SetEnabled(ena bool) {
	w.enabled = ena
}

func (w *Writer) Enabled() bool {
	return w.enabled
}

func (w *Writer) Close() error {
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

func (w *Writer) Debug(msg string) {
	if w.enabled {
		w.entry.Debug(msg)
	}
}

func (w *Writer) Info(msg string) {
	if w.enabled {
		w.entry.Info(msg)
	}
}

func (w *Writer) Warning(msg string) {
	if w.enabled {
		w.entry.Warn(msg)
	}
}

func (w *Writer) Err(msg string) {
	if w.enabled {
		w.entry.Error(msg)
	}
}

// WithFields returns an entry carrying extra structured fields
func (w *Writer) WithFields(fields map[string]interface{}) *logrus.Entry {
	return w.entry.WithFields(logrus.Fields(fields))
}
