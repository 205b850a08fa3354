// Copyright (c) 2014 The SurgeMQ Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package topics deals with MQTT topic names, topic filters and the routing of
// published messages to subscribers.
//   - "Topic name" is a / separated string that must not contain # or +
//   - / in topic name separates the string into "topic levels"
//   - # is a multi-level wildcard, and it must be the last level of the filter.
//     It represents the parent and all children levels.
//   - + is a single level wildcard. It must be the only character in the
//     topic level. It represents all names in the current level.
//   - $ marks a system level topic. Filters starting with a wildcard do not
//     match topics starting with $.
package topics

import (
	"errors"
	"strings"
)

const (
	// Multi-level wildcard
	MWC = "#"

	// Single level wildcard
	SWC = "+"

	// Topic level separator
	SEP = "/"

	// system level topics
	SYS = "$"
)

var (
	ErrEmptyTopic     = errors.New("topics: empty topic")
	ErrWildcardTopic  = errors.New("topics: topic name contains wildcard characters")
	ErrWildcardLevel  = errors.New("topics: wildcard characters must occupy entire level")
	ErrMultiLevelLast = errors.New("topics: multi-level wildcard must be the last level")
	ErrNotFound       = errors.New("topics: no subscription found")
)

// ValidTopic checks that topic is a publishable topic name.
func ValidTopic(topic string) error {
	if len(topic) == 0 {
		return ErrEmptyTopic
	}

	if strings.ContainsAny(topic, MWC+SWC) {
		return ErrWildcardTopic
	}

	return nil
}

// ValidFilter checks that filter is a well formed subscription filter.
func ValidFilter(filter string) error {
	if len(filter) == 0 {
		return ErrEmptyTopic
	}

	levels := strings.Split(filter, SEP)

	for i, level := range levels {
		switch {
		case level == MWC:
			if i != len(levels)-1 {
				return ErrMultiLevelLast
			}

		case level == SWC:

		case strings.ContainsAny(level, MWC+SWC):
			return ErrWildcardLevel
		}
	}

	return nil
}

// Join builds a topic name out of levels.
func Join(levels ...string) string {
	return strings.Join(levels, SEP)
}
