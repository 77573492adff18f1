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

package stats

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// JSONStats is what we want to report as stats via http
type JSONStats struct {
	Stats
	sys SysStats
	mux *http.ServeMux
}

// NewJSONStats returns a new JSONStats
func NewJSONStats() *JSONStats {
	s := &JSONStats{
		Stats: *NewStats(),
		mux:   http.NewServeMux(),
	}
	s.mux.HandleFunc("/counters", s.handleCountersRequest)
	return s
}

// Handle registers additional handler on the monitoring server, must be called before Start
func (s *JSONStats) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// CollectSysStats refreshes process and runtime counters
func (s *JSONStats) CollectSysStats(interval time.Duration) error {
	collected, err := s.sys.CollectRuntimeStats(interval)
	if err != nil {
		return err
	}
	for k, v := range collected {
		s.SetCounter(k, int64(v))
	}
	return nil
}

// Start runs http server and collects system stats every interval. It blocks.
func (s *JSONStats) Start(monitoringport int, interval time.Duration) {
	// collect stats forever
	go func() {
		for range time.Tick(interval) {
			// update stats on every tick
			if err := s.CollectSysStats(interval); err != nil {
				log.Warningf("failed to get system metrics %s", err)
			}
		}
	}()

	addr := fmt.Sprintf(":%d", monitoringport)
	log.Infof("Starting http json server on %s", addr)
	if err := http.ListenAndServe(addr, s.mux); err != nil {
		log.Fatalf("Failed to start listener: %v", err)
	}
}

// handleCountersRequest is a handler used for all http monitoring requests
func (s *JSONStats) handleCountersRequest(w http.ResponseWriter, _ *http.Request) {
	js, err := json.Marshal(s.GetCounters())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}
