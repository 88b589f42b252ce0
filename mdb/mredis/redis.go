// Package mredis implements connecting to a redis instance, and publishing
// and consuming encoded payloads over a redis stream.
package mredis

import (
	"context"

	"github.com/Nick-ccq/k10-base64/mcfg"
	"github.com/Nick-ccq/k10-base64/mcmp"
	"github.com/Nick-ccq/k10-base64/merr"
	"github.com/Nick-ccq/k10-base64/mlog"
	"github.com/Nick-ccq/k10-base64/mrun"
	"github.com/mediocregopher/radix/v3"
)

// Redis is a wrapper around a redis client which provides more functionality.
type Redis struct {
	radix.Client
	cmp     *mcmp.Component
	enabled *bool
}

// RedisOpt is an option which can be passed into InstRedis.
type RedisOpt func(*redisOpts)

type redisOpts struct {
	optional bool
}

// RedisOptional causes InstRedis to add an "enable" flag parameter to the
// Component. Unless the flag is set the Redis instance won't connect on Init,
// and Enabled will return false.
func RedisOptional() RedisOpt {
	return func(opts *redisOpts) {
		opts.optional = true
	}
}

// InstRedis instantiates a Redis instance which will be initialized when the
// Init event is triggered on the given Component. The redis client will have
// Close called on it when the Shutdown event is triggered on the given
// Component.
func InstRedis(parent *mcmp.Component, options ...RedisOpt) *Redis {
	var opts redisOpts
	for _, opt := range options {
		opt(&opts)
	}

	cmp := parent.Child("redis")
	client := new(struct{ radix.Client })
	enabled := new(bool)
	*enabled = true
	if opts.optional {
		enabled = mcfg.Bool(cmp, "enable",
			mcfg.ParamUsage("Connect to redis and publish payloads to it"))
	}

	addr := mcfg.String(cmp, "addr",
		mcfg.ParamDefault("127.0.0.1:6379"),
		mcfg.ParamUsage("Address redis is listening on"))
	poolSize := mcfg.Int(cmp, "pool-size",
		mcfg.ParamDefault(4),
		mcfg.ParamUsage("Number of connections in pool"))
	mrun.InitHook(cmp, func(ctx context.Context) error {
		if !*enabled {
			return nil
		}
		cmp.Annotate("addr", *addr, "poolSize", *poolSize)
		mlog.From(cmp).Info("connecting to redis", ctx)
		var err error
		client.Client, err = radix.NewPool("tcp", *addr, *poolSize)
		return merr.Wrap(err, cmp.Context(), ctx)
	})
	mrun.ShutdownHook(cmp, func(ctx context.Context) error {
		if client.Client == nil {
			return nil
		}
		mlog.From(cmp).Info("shutting down redis", ctx)
		return merr.Wrap(client.Close(), cmp.Context(), ctx)
	})

	return &Redis{
		Client:  client,
		cmp:     cmp,
		enabled: enabled,
	}
}

// Enabled returns false if RedisOptional was given to InstRedis and the
// "enable" parameter wasn't set. It's only meaningful once configuration has
// been populated.
func (r *Redis) Enabled() bool {
	return *r.enabled
}

// Component returns the Component the Redis instance was instantiated on.
func (r *Redis) Component() *mcmp.Component {
	return r.cmp
}
