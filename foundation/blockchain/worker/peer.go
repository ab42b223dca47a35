package worker

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

// peerOperations handles finding new peers and syncing with them.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.syncSignal:
			if !w.isShutdown() {
				w.Sync()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation updates the peer list and picks up any longer chain.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(pr)
		if err != nil {
			w.evHandler("worker: runPeersOperation: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			w.state.RemoveKnownPeer(pr)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// If this peer has a longer chain, try to take it.
		if peerStatus.ChainLength > w.state.RetrieveChainLength() {
			w.replaceChain(pr, peerStatus)
		}
	}

	// get the latest peers and let them know this node is available to chat
	for _, pr := range w.state.RetrieveKnownPeers() {
		if err := w.state.NetRequestAddPeer(pr); err != nil {
			w.evHandler("worker: runPeersOperation: addPeer: %s: ERROR: %s", pr.Host, err)
		}
	}
}

// addNewPeers takes the list of known peers and makes sure they are included
// in the nodes list of know peers.
func (w *Worker) addNewPeers(knownPeers []peer.Peer) {
	w.evHandler("worker: runPeerUpdatesOperation: addNewPeers: started")
	defer w.evHandler("worker: runPeerUpdatesOperation: addNewPeers: completed")

	for _, pr := range knownPeers {
		if w.state.AddKnownPeer(pr) {
			w.evHandler("worker: runPeerUpdatesOperation: addNewPeers: add peer nodes: adding peer-node %s", pr.Host)
		}
	}
}

// replaceChain requests the full chain from the peer and offers it to the
// state as a replacement for the local chain.
func (w *Worker) replaceChain(pr peer.Peer, peerStatus peer.PeerStatus) {
	w.evHandler("worker: replaceChain: %s: chainLength[%d]", pr.Host, peerStatus.ChainLength)

	blocks, err := w.state.NetRequestPeerChain(pr)
	if err != nil {
		w.evHandler("worker: replaceChain: %s: ERROR: %s", pr.Host, err)
		return
	}

	if err := w.state.ReplaceChain(blocks); err != nil {
		w.evHandler("worker: replaceChain: %s: WARNING: %s", pr.Host, err)
	}
}
