// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package notify delivers election notices through a database-backed job queue.

# Queue

Jobs are rows in the jobs table. Enqueue takes the caller's transaction so a
state change and the job announcing it commit together:

	store.WithTx(ctx, conn, nil, func(ctx context.Context, tx store.DBTX) error {
		if err := store.New(tx).UpdateNomination(ctx, n); err != nil {
			return err
		}
		_, err := queue.Enqueue(ctx, tx, notify.TypeNominationSubmitted,
			notify.NominationPayload{NominationID: n.ID})
		return err
	})

A WorkerPool polls the queue, dispatches each job to the Handler registered
for its type, retries failures with exponential backoff and moves jobs that
run out of attempts to dead_letter_jobs.

# Notices

Notifier supplies the handlers:

  - nomination_submitted: tells a nominee someone nominated them
  - election_open: tells every member eligible as of the membership deadline
    that voting is open

Every send is recorded in notice_delivery under a run ID, so retries and
repeated runs skip recipients already notified. Mail goes through the Mailer
interface; LogMailer just logs.
*/
package notify
