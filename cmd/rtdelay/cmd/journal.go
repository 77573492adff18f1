/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"

	"github.com/coreos/go-systemd/journal"
	log "github.com/sirupsen/logrus"
)

const journalIdentifier = "rtdelay"

var levelToPriority = map[log.Level]journal.Priority{
	log.PanicLevel: journal.PriEmerg,
	log.FatalLevel: journal.PriCrit,
	log.ErrorLevel: journal.PriErr,
	log.WarnLevel:  journal.PriWarning,
	log.InfoLevel:  journal.PriInfo,
	log.DebugLevel: journal.PriDebug,
	log.TraceLevel: journal.PriDebug,
}

// journalHook mirrors log entries into systemd journal
type journalHook struct {
	send func(message string, priority journal.Priority, vars map[string]string) error
}

// Levels implements logrus.Hook
func (h *journalHook) Levels() []log.Level {
	return log.AllLevels
}

// Fire implements logrus.Hook
func (h *journalHook) Fire(e *log.Entry) error {
	return h.send(e.Message, levelToPriority[e.Level], map[string]string{
		"SYSLOG_IDENTIFIER": journalIdentifier,
	})
}

func addJournalHook(logger *log.Logger) error {
	if !journal.Enabled() {
		return fmt.Errorf("journald socket is not available")
	}
	logger.AddHook(&journalHook{send: journal.Send})
	return nil
}
