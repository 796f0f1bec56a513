/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package config holds the dial options for socket/client.
package config

import (
	"crypto/tls"
	"os"
	"time"

	libptc "github.com/nabbar/actorkit/network/protocol"
)

// TLSClient carries the client-side TLS options. A zero value means plain,
// unencrypted dialing.
type TLSClient struct {
	Enable             bool
	InsecureSkipVerify bool
	ServerName         string
}

// tlsConfig builds a *tls.Config from t, or nil when TLS is disabled.
func (t TLSClient) tlsConfig() *tls.Config {
	if !t.Enable {
		return nil
	}
	return &tls.Config{
		InsecureSkipVerify: t.InsecureSkipVerify,
		ServerName:         t.ServerName,
	}
}

// TLSConfig exposes the *tls.Config socket/client dials with, nil when TLS
// is disabled.
func (t TLSClient) TLSConfig() *tls.Config {
	return t.tlsConfig()
}

// Client describes the remote endpoint a socket/client.Client dials.
type Client struct {
	// Network selects the dial network (tcp, udp, unix...).
	Network libptc.NetworkProtocol

	// Address is the net.Dial address: host:port for tcp/udp, a path for
	// unix/unixgram.
	Address string

	// Timeout bounds a single dial attempt. Zero means no timeout.
	Timeout time.Duration

	// TLS enables and configures a TLS handshake once the raw connection is
	// established. Ignored for udp/unixgram networks.
	TLS TLSClient
}

// Validate reports whether c names a usable endpoint.
func (c Client) Validate() error {
	if !c.Network.Valid() || c.Network.String() == "" {
		return ErrInvalidNetwork
	}
	if c.Address == "" {
		return ErrInvalidAddress
	}
	return nil
}

// Server describes the endpoint a socket/server.Server listens on.
type Server struct {
	// Network selects the listen network (tcp, udp, unix, unixgram...).
	Network libptc.NetworkProtocol

	// Address is the net.Listen/net.ListenPacket address: host:port for
	// tcp/udp, a filesystem path for unix/unixgram.
	Address string

	// PermFile is the file mode applied to a freshly-created unix/unixgram
	// socket file. Ignored for tcp/udp.
	PermFile os.FileMode

	// GroupPerm, when >= 0, is the gid applied to the socket file via
	// os.Chown. -1 leaves ownership untouched.
	GroupPerm int
}

// Validate reports whether s names a usable listen endpoint.
func (s Server) Validate() error {
	if !s.Network.Valid() || s.Network.String() == "" {
		return ErrInvalidNetwork
	}
	if s.Address == "" {
		return ErrInvalidAddress
	}
	return nil
}
