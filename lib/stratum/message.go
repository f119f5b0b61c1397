// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stratum

import (
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Method names recognized by Classify.
const (
	MethodSubscribe           = "mining.subscribe"
	MethodAuthorize           = "mining.authorize"
	MethodSubmit              = "mining.submit"
	MethodSetDifficulty       = "mining.set_difficulty"
	MethodNotify              = "mining.notify"
	MethodSetExtranonce       = "mining.set_extranonce"
	MethodExtranonceSubscribe = "mining.extranonce.subscribe"
)

// Message kinds returned by Message.Kind. These names appear in log
// output and capture files.
const (
	KindSubscribe              = "subscribe"
	KindAuthorize              = "authorize"
	KindSubmit                 = "submit"
	KindSetDifficulty          = "set_difficulty"
	KindNotify                 = "notify"
	KindSetExtranonce          = "set_extranonce"
	KindExtranonceSubscribeAck = "extranonce_subscribe"
	KindResponse               = "response"
	KindUnparsed               = "unparsed"
)

// Message is one decoded frame. The set of implementations is closed;
// switch on the concrete type to inspect fields.
type Message interface {
	// Kind returns the stable kind name of the variant.
	Kind() string

	slog.LogValuer

	isMessage()
}

// HexBytes is a byte slice that renders as lowercase hex in logs, JSON,
// and capture files.
type HexBytes []byte

func (b HexBytes) String() string { return hex.EncodeToString(b) }

// MarshalText implements encoding.TextMarshaler.
func (b HexBytes) MarshalText() ([]byte, error) {
	encoded := make([]byte, hex.EncodedLen(len(b)))
	hex.Encode(encoded, b)
	return encoded, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *HexBytes) UnmarshalText(text []byte) error {
	decoded := make([]byte, hex.DecodedLen(len(text)))
	if _, err := hex.Decode(decoded, text); err != nil {
		return fmt.Errorf("stratum: invalid hex bytes: %w", err)
	}
	*b = decoded
	return nil
}

// Subscribe is mining.subscribe, sent by the miner.
type Subscribe struct {
	UserAgent string `json:"user_agent"`
	SessionID string `json:"session_id"`
}

// Authorize is mining.authorize, sent by the miner.
type Authorize struct {
	WorkerName     string `json:"worker_name"`
	WorkerPassword string `json:"worker_password"`
}

// Submit is mining.submit, a share submitted by the miner. NTime and
// Nonce arrive as hex text on the wire.
type Submit struct {
	WorkerName  string   `json:"worker_name"`
	JobID       string   `json:"job_id"`
	Extranonce2 HexBytes `json:"extranonce2"`
	NTime       uint32   `json:"ntime"`
	Nonce       uint32   `json:"nonce"`
}

// SetDifficulty is mining.set_difficulty, sent by the pool.
type SetDifficulty struct {
	Difficulty float64 `json:"difficulty"`
}

// Notify is mining.notify, a job sent by the pool.
type Notify struct {
	JobID        string   `json:"job_id"`
	PrevHash     string   `json:"prevhash"`
	Coinb1       HexBytes `json:"coinb1"`
	Coinb2       HexBytes `json:"coinb2"`
	MerkleBranch []string `json:"merkle_branch"`
	Version      uint32   `json:"version"`
	NBits        uint32   `json:"nbits"`
	NTime        uint32   `json:"ntime"`
	CleanJobs    bool     `json:"clean_jobs"`
}

// SetExtranonce is mining.set_extranonce, sent by the pool.
type SetExtranonce struct {
	Extranonce1     string `json:"extranonce1"`
	Extranonce2Size uint64 `json:"extranonce2_size"`
}

// ExtranonceSubscribeAck is mining.extranonce.subscribe. It is keyed by
// the message id rather than by params.
type ExtranonceSubscribeAck struct {
	RequestID uint64 `json:"request_id"`
}

// Response is a reply that carries an id but no method. ID, Result and
// Error hold compact JSON text; Error is empty when absent or null.
type Response struct {
	ID     string `json:"id"`
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Unparsed is a frame that could not be classified. Method is set when
// the frame was valid JSON naming an unrecognized method.
type Unparsed struct {
	Method string `json:"method,omitempty"`
	Reason string `json:"reason"`
	Raw    string `json:"raw"`
}

func (Subscribe) Kind() string              { return KindSubscribe }
func (Authorize) Kind() string              { return KindAuthorize }
func (Submit) Kind() string                 { return KindSubmit }
func (SetDifficulty) Kind() string          { return KindSetDifficulty }
func (Notify) Kind() string                 { return KindNotify }
func (SetExtranonce) Kind() string          { return KindSetExtranonce }
func (ExtranonceSubscribeAck) Kind() string { return KindExtranonceSubscribeAck }
func (Response) Kind() string               { return KindResponse }
func (Unparsed) Kind() string               { return KindUnparsed }

func (Subscribe) isMessage()              {}
func (Authorize) isMessage()              {}
func (Submit) isMessage()                 {}
func (SetDifficulty) isMessage()          {}
func (Notify) isMessage()                 {}
func (SetExtranonce) isMessage()          {}
func (ExtranonceSubscribeAck) isMessage() {}
func (Response) isMessage()               {}
func (Unparsed) isMessage()               {}

func (m Subscribe) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user_agent", m.UserAgent),
		slog.String("session_id", m.SessionID),
	)
}

// LogValue includes the worker password verbatim; on most pools it
// carries difficulty hints such as "d=1024".
func (m Authorize) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("worker_name", m.WorkerName),
		slog.String("worker_password", m.WorkerPassword),
	)
}

func (m Submit) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("worker_name", m.WorkerName),
		slog.String("job_id", m.JobID),
		slog.String("extranonce2", m.Extranonce2.String()),
		slog.String("ntime", fmt.Sprintf("%08x", m.NTime)),
		slog.String("nonce", fmt.Sprintf("%08x", m.Nonce)),
	)
}

func (m SetDifficulty) LogValue() slog.Value {
	return slog.GroupValue(slog.Float64("difficulty", m.Difficulty))
}

func (m Notify) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("job_id", m.JobID),
		slog.String("prevhash", m.PrevHash),
		slog.String("coinb1", m.Coinb1.String()),
		slog.String("coinb2", m.Coinb2.String()),
		slog.Any("merkle_branch", m.MerkleBranch),
		slog.Uint64("version", uint64(m.Version)),
		slog.Uint64("nbits", uint64(m.NBits)),
		slog.Uint64("ntime", uint64(m.NTime)),
		slog.Bool("clean_jobs", m.CleanJobs),
	)
}

func (m SetExtranonce) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("extranonce1", m.Extranonce1),
		slog.Uint64("extranonce2_size", m.Extranonce2Size),
	)
}

func (m ExtranonceSubscribeAck) LogValue() slog.Value {
	return slog.GroupValue(slog.Uint64("request_id", m.RequestID))
}

func (m Response) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("id", m.ID),
		slog.String("result", m.Result),
	}
	if m.Error != "" {
		attrs = append(attrs, slog.String("error", m.Error))
	}
	return slog.GroupValue(attrs...)
}

func (m Unparsed) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 3)
	if m.Method != "" {
		attrs = append(attrs, slog.String("method", m.Method))
	}
	attrs = append(attrs,
		slog.String("reason", m.Reason),
		slog.String("raw", m.Raw),
	)
	return slog.GroupValue(attrs...)
}
