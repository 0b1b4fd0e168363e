// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists members, elections, nominations and ballots.

A Store wraps anything satisfying DBTX, so the same methods run against the
pool or inside a transaction:

	err := store.WithTx(ctx, conn, nil, func(ctx context.Context, tx store.DBTX) error {
		s := store.New(tx)
		if err := s.UpdateNomination(ctx, n); err != nil {
			return err
		}
		_, err := queue.Enqueue(ctx, tx, notify.TypeNominationSubmitted, payload)
		return err
	})

Missing rows come back as ErrNotFound and unique key collisions as
ErrAlreadyExists; everything else is wrapped with "db error".

Timestamps are written in UTC. Calendar dates (activity days, grant ranges)
are stored as YYYY-MM-DD text.
*/
package store
