package worker

// Sync updates the peer list, mempool and chain.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(pr)
		if err != nil {
			w.evHandler("worker: sync: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// Retrieve the mempool from the peer.
		pool, err := w.state.NetRequestPeerMempool(pr)
		if err != nil {
			w.evHandler("worker: sync: retrievePeerMempool: %s: ERROR: %s", pr.Host, err)
		}
		for _, tx := range pool {
			if err := w.state.UpsertNodeTransaction(tx); err != nil {
				w.evHandler("worker: sync: retrievePeerMempool: %s: skip tx[%s]: %s", pr.Host, tx.ID, err)
				continue
			}
			w.evHandler("worker: sync: retrievePeerMempool: %s: Add Tx: %s", pr.Host, tx.ID)
		}

		// If this peer has a longer chain, we need to take it.
		if peerStatus.ChainLength > w.state.RetrieveChainLength() {
			w.replaceChain(pr, peerStatus)
		}
	}
}
