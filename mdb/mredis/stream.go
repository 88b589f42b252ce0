package mredis

import (
	"bufio"
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Nick-ccq/k10-base64/mcfg"
	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/Nick-ccq/k10-base64/merr"
	"github.com/Nick-ccq/k10-base64/mlog"
	"github.com/Nick-ccq/k10-base64/mpipe"
	"github.com/Nick-ccq/k10-base64/mrun"
	"github.com/Nick-ccq/k10-base64/mtime"

	"github.com/mediocregopher/radix/v3"
	"github.com/mediocregopher/radix/v3/resp/resp2"
)

// borrowed from radix
type streamReaderEntry struct {
	stream  []byte
	entries []radix.StreamEntry
}

func (s *streamReaderEntry) UnmarshalRESP(br *bufio.Reader) error {
	var ah resp2.ArrayHeader
	if err := ah.UnmarshalRESP(br); err != nil {
		return err
	}
	if ah.N != 2 {
		return errors.New("invalid xread[group] response")
	}

	var stream resp2.BulkStringBytes
	stream.B = s.stream[:0]
	if err := stream.UnmarshalRESP(br); err != nil {
		return err
	}
	s.stream = stream.B

	return (resp2.Any{I: &s.entries}).UnmarshalRESP(br)
}

// StreamEntry is a single mpipe.Payload consumed from a Stream.
type StreamEntry struct {
	ID      radix.StreamEntryID
	Payload mpipe.Payload

	// Ack is used in order to acknowledge that a stream message has been
	// successfully consumed and should not be consumed again.
	Ack func() error

	// Nack is used to declare that a stream message was not successfully
	// consumed and it needs to be consumed again.
	Nack func()
}

// StreamOpts are options used to initialize a Stream instance. Fields are
// required unless otherwise noted.
type StreamOpts struct {
	// Key is the redis key at which the redis stream resides.
	Key string

	// Group is the name of the consumer group which will consume from Key.
	// Only required for consuming.
	Group string

	// Consumer is the name of this particular consumer. This value should
	// remain the same across restarts of the process. Only required for
	// consuming.
	Consumer string

	// (Optional) InitialCursor is only used when the consumer group is first
	// being created, and indicates where in the stream the consumer group
	// should start consuming from.
	//
	// "0" indicates the group should consume from the start of the stream. "$"
	// indicates the group should not consume any old messages, only those added
	// after the group is initialized.
	//
	// Defaults to "0".
	InitialCursor string

	// (Optional) ReadCount indicates the max number of messages which should be
	// read on every XREADGROUP call. 0 indicates no limit.
	ReadCount int

	// (Optional) Block indicates what BLOCK value is sent to XREADGROUP calls.
	// This value _must_ be less than the ReadTimeout the redis client is
	// using.
	//
	// Defaults to 5 * time.Second
	Block time.Duration

	// (Optional) MaxLen is the approximate maximum number of entries kept in
	// the stream by Publish. 0 indicates no limit.
	MaxLen int
}

func (opts *StreamOpts) fillDefaults() {
	if opts.InitialCursor == "" {
		opts.InitialCursor = "0"
	}
	if opts.Block == 0 {
		opts.Block = 5 * time.Second
	}
}

// Stream wraps a Redis instance in order to provide an abstraction over
// publishing mpipe.Payloads to, and consuming them from, a single redis
// stream. Consuming is intended to be done in a single-threaded manner, and
// doesn't spawn any go-routines.
//
// See https://redis.io/topics/streams-intro
type Stream struct {
	client *Redis
	opts   StreamOpts

	// entries are stored to buf in id decreasing order, and then read from it
	// from back-to-front. This allows us to not have to re-allocate the buffer
	// during runtime.
	buf []StreamEntry

	hasInit    bool
	numPending int64
}

// NewStream initializes and returns a Stream instance using the given options.
func NewStream(r *Redis, opts StreamOpts) *Stream {
	opts.fillDefaults()
	return &Stream{
		client: r,
		opts:   opts,
		buf:    make([]StreamEntry, 0, opts.ReadCount),
	}
}

// InstStream is like NewStream, but the StreamOpts are configured via mcfg
// parameters on a child Component named "stream" of the Redis instance's
// Component, and are filled in when its Init event is triggered.
func InstStream(r *Redis, defaultKey string) *Stream {
	cmp := r.cmp.Child("stream")
	key := mcfg.String(cmp, "key",
		mcfg.ParamDefault(defaultKey),
		mcfg.ParamUsage("Key of the stream which payloads are published to"))
	group := mcfg.String(cmp, "group",
		mcfg.ParamDefault("k10b64"),
		mcfg.ParamUsage("Consumer group which payloads are consumed with"))
	consumer := mcfg.String(cmp, "consumer",
		mcfg.ParamDefault("archiver"),
		mcfg.ParamUsage("Name of this consumer within the consumer group"))
	maxLen := mcfg.Int(cmp, "max-len",
		mcfg.ParamDefault(1000),
		mcfg.ParamUsage("Approximate maximum number of payloads kept in the stream"))
	block := mcfg.Duration(cmp, "block",
		mcfg.ParamDefault(mtime.Dur(5*time.Second)),
		mcfg.ParamUsage("How long each read of the stream waits for new payloads"))

	s := NewStream(r, StreamOpts{})
	mrun.InitHook(cmp, func(ctx context.Context) error {
		s.opts.Key = *key
		s.opts.Group = *group
		s.opts.Consumer = *consumer
		s.opts.MaxLen = *maxLen
		if block.Duration > 0 {
			s.opts.Block = block.Duration
		}
		cmp.Annotate("key", *key)
		mlog.From(cmp).Debug("stream configured", ctx)
		return nil
	})
	return s
}

func payloadFields(p mpipe.Payload) []string {
	return []string{
		"source", p.Source,
		"name", p.Name,
		"size", strconv.FormatInt(p.Size, 10),
		"digest", p.Digest,
		"base64", p.Base64,
	}
}

func payloadFromFields(fields map[string]string) (mpipe.Payload, error) {
	size, err := strconv.ParseInt(fields["size"], 10, 64)
	if err != nil {
		return mpipe.Payload{}, merr.Wrap(err, mctx.Annotated("size", fields["size"]))
	}
	return mpipe.Payload{
		Source: fields["source"],
		Name:   fields["name"],
		Size:   size,
		Digest: fields["digest"],
		Base64: fields["base64"],
	}, nil
}

func (s *Stream) xaddArgs(p mpipe.Payload) []string {
	args := []string{s.opts.Key}
	if s.opts.MaxLen > 0 {
		args = append(args, "MAXLEN", "~", strconv.Itoa(s.opts.MaxLen))
	}
	args = append(args, "*")
	return append(args, payloadFields(p)...)
}

// Publish adds the Payload as a new entry on the stream, with an id generated
// by redis. It implements mpipe.Sink.
func (s *Stream) Publish(ctx context.Context, p mpipe.Payload) error {
	var id string
	err := s.client.Do(radix.Cmd(&id, "XADD", s.xaddArgs(p)...))
	if err != nil {
		return merr.Wrap(err, s.client.cmp.Context(), ctx)
	}
	mlog.From(s.client.cmp).Debug("payload published", ctx,
		mctx.Annotated("key", s.opts.Key, "id", id, "name", p.Name))
	return nil
}

func (s *Stream) init() error {
	// MKSTREAM is not documented, but will make the stream if it doesn't
	// already exist. Only the most elite redis gurus know of it's
	// existence, don't tell anyone.
	err := s.client.Do(radix.Cmd(nil, "XGROUP", "CREATE", s.opts.Key, s.opts.Group, s.opts.InitialCursor, "MKSTREAM"))
	if err == nil {
		// cool
	} else if errStr := err.Error(); !strings.HasPrefix(errStr, `BUSYGROUP Consumer Group name already exists`) {
		return merr.Wrap(err, s.client.cmp.Context())
	}

	// if we're here it means init succeeded, mark as such and gtfo
	s.hasInit = true

	// entries delivered to this consumer by a previous process, but never
	// acked, are read before any new ones.
	atomic.AddInt64(&s.numPending, 1)
	return nil
}

func (s *Stream) wrapEntry(entry radix.StreamEntry, payload mpipe.Payload) StreamEntry {
	return StreamEntry{
		ID:      entry.ID,
		Payload: payload,
		Ack: func() error {
			return s.client.Do(radix.Cmd(nil, "XACK", s.opts.Key, s.opts.Group, entry.ID.String()))
		},
		Nack: func() { atomic.AddInt64(&s.numPending, 1) },
	}
}

// decodeEntries returns the given entries wrapped, in id decreasing order,
// along with the ids of any entries whose fields couldn't be decoded into a
// Payload.
func (s *Stream) decodeEntries(entries []radix.StreamEntry) ([]StreamEntry, []radix.StreamEntryID) {
	wrapped := make([]StreamEntry, 0, len(entries))
	var malformed []radix.StreamEntryID
	for i := len(entries) - 1; i >= 0; i-- {
		payload, err := payloadFromFields(entries[i].Fields)
		if err != nil {
			malformed = append(malformed, entries[i].ID)
			continue
		}
		wrapped = append(wrapped, s.wrapEntry(entries[i], payload))
	}
	return wrapped, malformed
}

// dropMalformed acknowledges the given entries, so they don't sit in the
// group's pending list forever, and logs each as dropped.
func (s *Stream) dropMalformed(ids []radix.StreamEntryID) error {
	if len(ids) == 0 {
		return nil
	}
	args := []string{s.opts.Key, s.opts.Group}
	for _, id := range ids {
		args = append(args, id.String())
	}
	if err := s.client.Do(radix.Cmd(nil, "XACK", args...)); err != nil {
		return merr.Wrap(err, s.client.cmp.Context())
	}
	for _, id := range ids {
		mlog.From(s.client.cmp).Warn("dropped malformed stream entry",
			mctx.Annotated("key", s.opts.Key, "id", id.String()))
	}
	return nil
}

func (s *Stream) fillBufFrom(id string) error {
	args := []string{"GROUP", s.opts.Group, s.opts.Consumer}
	if s.opts.ReadCount > 0 {
		args = append(args, "COUNT", strconv.Itoa(s.opts.ReadCount))
	}
	args = append(args, "BLOCK", strconv.FormatInt(s.opts.Block.Milliseconds(), 10))
	args = append(args, "STREAMS", s.opts.Key, id)

	var srEntries []streamReaderEntry
	err := s.client.Do(radix.Cmd(&srEntries, "XREADGROUP", args...))
	if err != nil {
		return merr.Wrap(err, s.client.cmp.Context())
	} else if len(srEntries) == 0 {
		return nil // no messages
	} else if len(srEntries) != 1 || string(srEntries[0].stream) != s.opts.Key {
		return merr.New("malformed return from XREADGROUP",
			mctx.Annotate(s.client.cmp.Context(), "numStreams", len(srEntries)))
	}

	entries, malformed := s.decodeEntries(srEntries[0].entries)
	if err := s.dropMalformed(malformed); err != nil {
		// the whole batch is still pending, make sure it gets read again
		atomic.AddInt64(&s.numPending, 1)
		return err
	}
	s.buf = append(s.buf, entries...)
	return nil
}

func (s *Stream) fillBuf() error {
	if len(s.buf) > 0 {
		return nil
	} else if !s.hasInit {
		if err := s.init(); err != nil {
			return err
		} else if !s.hasInit {
			return nil
		}
	}

	numPending := atomic.LoadInt64(&s.numPending)
	if numPending > 0 {
		if err := s.fillBufFrom("0"); err != nil {
			return err
		} else if len(s.buf) > 0 {
			return nil
		}

		// no pending entries, we can mark Stream as such and continue. This
		// _might_ fail if another routine called Nack in between originally
		// loading numPending and now, in which case we should leave the buffer
		// alone and let it get filled again later.
		if !atomic.CompareAndSwapInt64(&s.numPending, numPending, 0) {
			return nil
		}
	}

	return s.fillBufFrom(">")
}

// Next returns the next StreamEntry which needs processing, or false. This
// method is expected to block for up to the value of the Block field in
// StreamOpts.
//
// If an error is returned it's up to the caller whether or not they want to
// keep retrying.
func (s *Stream) Next() (StreamEntry, bool, error) {
	if err := s.fillBuf(); err != nil {
		return StreamEntry{}, false, err
	} else if len(s.buf) == 0 {
		return StreamEntry{}, false, nil
	}

	l := len(s.buf)
	entry := s.buf[l-1]
	s.buf = s.buf[:l-1]
	return entry, true, nil
}
