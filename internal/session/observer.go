package session

// Observer receives progress notifications from a client session. It is purely
// observational and never influences the protocol.
type Observer interface {
	// Progress reports the total bytes received so far for a catalog entry.
	Progress(index int, received uint64)
	// Finished reports that an entry reached Done and its file is closed.
	Finished(index int)
	// Waiting reports that the round is over and the client waits for new intent.
	Waiting()
}

// Observers fans notifications out to several observers in order.
type Observers []Observer

func (o Observers) Progress(index int, received uint64) {
	for _, obs := range o {
		obs.Progress(index, received)
	}
}

func (o Observers) Finished(index int) {
	for _, obs := range o {
		obs.Finished(index)
	}
}

func (o Observers) Waiting() {
	for _, obs := range o {
		obs.Waiting()
	}
}
