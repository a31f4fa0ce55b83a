package mediasvc

// Hold queue helpers. The queue is strictly FIFO: promotion always takes the
// head, never a later entry. These functions only propose; the repository
// applies the actual pull together with the holder assignment.

// Enqueue appends userID if absent.
func Enqueue(queue []int64, userID int64) []int64 {
	for _, id := range queue {
		if id == userID {
			return queue
		}
	}
	return append(queue, userID)
}

// Head returns the first-enqueued user, or EMPTY_QUEUE.
func Head(queue []int64) (int64, error) {
	if len(queue) == 0 {
		return 0, makeErr(ErrEmptyQueue)
	}
	return queue[0], nil
}

// Remove drops userID from the queue, preserving order. Removing an absent
// user is a no-op.
func Remove(queue []int64, userID int64) []int64 {
	out := queue[:0]
	for _, id := range queue {
		if id != userID {
			out = append(out, id)
		}
	}
	return out
}
