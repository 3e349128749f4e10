/*
   Copyright 2022 Erigon contributors

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

package remotedb

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/fdbgo/fdb/kv"
)

// Option configures Open, following the small functional-options-struct
// pattern already used for this ecosystem's remote KV client.
type options struct {
	dialAddress  string
	certFile     string
	keyFile      string
	caCertFile   string
	maxRecvBytes datasize.ByteSize
	log          log.Logger
}

type Option func(*options)

func WithAddress(addr string) Option { return func(o *options) { o.dialAddress = addr } }

func WithTLS(certFile, keyFile, caCertFile string) Option {
	return func(o *options) { o.certFile, o.keyFile, o.caCertFile = certFile, keyFile, caCertFile }
}

func WithMaxRecv(size datasize.ByteSize) Option { return func(o *options) { o.maxRecvBytes = size } }

func WithLogger(logger log.Logger) Option { return func(o *options) { o.log = logger } }

// Client is a kv.Transport backed by a gRPC connection to a range-read
// service. It owns dialing, TLS, backoff and keepalive, mirroring the
// remote KV client dial path used elsewhere in this codebase, trimmed to
// the one RPC this engine needs: GetRange.
type Client struct {
	conn *grpc.ClientConn
	log  log.Logger
}

var _ kv.Transport = (*Client)(nil)

// Open dials the address set by WithAddress and returns a Client. The
// caller owns Close.
func Open(ctx context.Context, opts ...Option) (*Client, error) {
	o := options{maxRecvBytes: 15 * datasize.MB, log: log.Root()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dialAddress == "" {
		return nil, kv.NewFault(kv.Contract, fmt.Errorf("remotedb: WithAddress is required"))
	}

	backoffCfg := backoff.DefaultConfig
	backoffCfg.BaseDelay = 500 * time.Millisecond
	backoffCfg.MaxDelay = 10 * time.Second

	dialOpts := []grpc.DialOption{
		grpc.WithConnectParams(grpc.ConnectParams{Backoff: backoffCfg, MinConnectTimeout: 10 * time.Minute}),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(int(o.maxRecvBytes)),
			grpc.CallContentSubtype(gobCodecName),
		),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{}),
	}

	creds, err := o.transportCreds()
	if err != nil {
		return nil, err
	}
	dialOpts = append(dialOpts, grpc.WithTransportCredentials(creds))

	conn, err := grpc.DialContext(ctx, o.dialAddress, dialOpts...)
	if err != nil {
		return nil, kv.NewFault(kv.Transport, fmt.Errorf("remotedb: dial %s: %w", o.dialAddress, err))
	}
	o.log.Info("remotedb: connected", "addr", o.dialAddress)
	return &Client{conn: conn, log: o.log}, nil
}

func (o options) transportCreds() (credentials.TransportCredentials, error) {
	if o.certFile == "" {
		return insecure.NewCredentials(), nil
	}
	peerCert, err := tls.LoadX509KeyPair(o.certFile, o.keyFile)
	if err != nil {
		return nil, kv.NewFault(kv.Backend, fmt.Errorf("remotedb: load cert/key: %w", err))
	}
	pool := x509.NewCertPool()
	if o.caCertFile != "" {
		caCert, err := os.ReadFile(o.caCertFile)
		if err != nil {
			return nil, kv.NewFault(kv.Backend, fmt.Errorf("remotedb: read CA cert: %w", err))
		}
		pool.AppendCertsFromPEM(caCert)
	}
	return credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{peerCert},
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
	}), nil
}

// Close tears down the gRPC connection.
func (c *Client) Close() error { return c.conn.Close() }

// wireRangeRequest/wireRangeResponse are the gob-encoded request/response
// pair for the "/fdb.RangeService/GetRange" RPC.
type wireRangeRequest struct {
	BeginKey, EndKey     []byte
	BeginOrEqual         bool
	EndOrEqual           bool
	BeginOffset          int32
	EndOffset            int32
	Limit, TargetBytes   int
	Mode                 int
	Reverse              bool
	Iteration            uint32
	Snapshot             bool
}

type wireRangeResponse struct {
	Keys, Values [][]byte
	HasMore      bool
	Iteration    uint32
	Reversed     bool
	ErrCode      string
	ErrMessage   string
}

// GetRange implements kv.Transport.
func (c *Client) GetRange(ctx context.Context, req kv.RangeRequest) (kv.Page, error) {
	wreq := &wireRangeRequest{
		BeginKey:     req.Selector.Begin.ReferenceKey,
		EndKey:       req.Selector.End.ReferenceKey,
		BeginOrEqual: req.Selector.Begin.OrEqual,
		EndOrEqual:   req.Selector.End.OrEqual,
		BeginOffset:  req.Selector.Begin.Offset,
		EndOffset:    req.Selector.End.Offset,
		Limit:        req.Options.Limit,
		TargetBytes:  req.Options.TargetBytes,
		Mode:         int(req.Options.Mode),
		Reverse:      req.Options.Reverse,
		Iteration:    req.Iteration,
		Snapshot:     req.Snapshot,
	}
	wresp := new(wireRangeResponse)
	if err := c.conn.Invoke(ctx, "/fdb.RangeService/GetRange", wreq, wresp); err != nil {
		return kv.Page{}, kv.NewFault(kv.Transport, fmt.Errorf("remotedb: GetRange: %w", err))
	}
	if wresp.ErrCode != "" {
		return kv.Page{}, classifyBackendError(wresp.ErrCode, wresp.ErrMessage)
	}

	records := make([]kv.Record, len(wresp.Keys))
	for i := range wresp.Keys {
		records[i] = kv.Record{Key: wresp.Keys[i], Value: wresp.Values[i]}
	}
	return kv.Page{
		Records:   records,
		HasMore:   wresp.HasMore,
		Iteration: wresp.Iteration,
		Reversed:  wresp.Reversed,
	}, nil
}
