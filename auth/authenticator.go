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

// Package auth provides the authenticators the embedded broker can be
// configured with. They are registered with the surgemq auth registry and
// selected by name.
package auth

import (
	"crypto/subtle"
	"errors"

	surgeauth "github.com/surgemq/surgemq/auth"
)

const StaticProvider = "static"

var ErrAuthFailure = errors.New("auth: Authentication failure")

// Static accepts a single username and password. With no username set every
// client is accepted.
type Static struct {
	username string
	password string
}

var _ surgeauth.Authenticator = (*Static)(nil)

func NewStatic(username, password string) *Static {
	return &Static{
		username: username,
		password: password,
	}
}

func (this *Static) Anonymous() bool {
	return this.username == ""
}

// Authenticate checks id and cred, where cred is the password as sent in the
// CONNECT message, either as a string or as bytes.
func (this *Static) Authenticate(id string, cred interface{}) error {
	if this.Anonymous() {
		return nil
	}

	var pass []byte

	switch c := cred.(type) {
	case string:
		pass = []byte(c)
	case []byte:
		pass = c
	default:
		return ErrAuthFailure
	}

	userOK := subtle.ConstantTimeCompare([]byte(id), []byte(this.username)) == 1
	passOK := subtle.ConstantTimeCompare(pass, []byte(this.password)) == 1

	if !userOK || !passOK {
		return ErrAuthFailure
	}

	return nil
}

// Register installs provider under name, replacing any provider already
// registered with that name.
func Register(name string, provider surgeauth.Authenticator) {
	surgeauth.Unregister(name)
	surgeauth.Register(name, provider)
}

// RegisterStatic registers a Static authenticator for username and password
// under StaticProvider and returns the provider name.
func RegisterStatic(username, password string) string {
	Register(StaticProvider, NewStatic(username, password))
	return StaticProvider
}
