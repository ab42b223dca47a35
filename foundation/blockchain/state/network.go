package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// client is used for all node to node requests.
var client = http.Client{
	Timeout: 10 * time.Second,
}

// NetSendBlockToPeers takes the new mined block and sends it to all known
// peers. Every peer is tried and the failures are returned together.
func (s *State) NetSendBlockToPeers(block database.Block) error {
	s.evHandler("state: NetSendBlockToPeers: started")
	defer s.evHandler("state: NetSendBlockToPeers: completed")

	var errs []error
	for _, pr := range s.RetrieveKnownPeers() {
		url := fmt.Sprintf("%s/block/propose", fmt.Sprintf(baseURL, pr.Host))

		var status struct {
			Status string `json:"status"`
		}

		if err := send(http.MethodPost, url, block, &status); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pr.Host, err))
			continue
		}

		s.evHandler("state: NetSendBlockToPeers: sent to peer[%s]: status[%s]", pr.Host, status.Status)
	}

	return errors.Join(errs...)
}

// NetSendTxToPeers shares a new transaction with the known peers.
func (s *State) NetSendTxToPeers(tx database.Tx) {
	s.evHandler("state: NetSendTxToPeers: started")
	defer s.evHandler("state: NetSendTxToPeers: completed")

	for _, pr := range s.RetrieveKnownPeers() {
		url := fmt.Sprintf("%s/tx/submit", fmt.Sprintf(baseURL, pr.Host))
		if err := send(http.MethodPost, url, tx, nil); err != nil {
			s.evHandler("state: NetSendTxToPeers: WARNING: %s: %s", pr.Host, err)
		}
	}
}

// NetRequestPeerStatus looks for new nodes on the blockchain by asking
// known nodes for their peer list. New nodes are added to the list.
func (s *State) NetRequestPeerStatus(pr peer.Peer) (peer.PeerStatus, error) {
	s.evHandler("state: NetRequestPeerStatus: started: %s", pr.Host)
	defer s.evHandler("state: NetRequestPeerStatus: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.PeerStatus
	if err := send(http.MethodGet, url, nil, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	s.evHandler("state: NetRequestPeerStatus: peer-node[%s]: chain-length[%d]: peer-list[%v]", pr.Host, ps.ChainLength, ps.KnownPeers)

	return ps, nil
}

// NetRequestPeerMempool asks the peer for the transactions in their mempool.
func (s *State) NetRequestPeerMempool(pr peer.Peer) ([]database.Tx, error) {
	s.evHandler("state: NetRequestPeerMempool: started: %s", pr.Host)
	defer s.evHandler("state: NetRequestPeerMempool: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/tx/list", fmt.Sprintf(baseURL, pr.Host))

	var mempool []database.Tx
	if err := send(http.MethodGet, url, nil, &mempool); err != nil {
		return nil, err
	}

	s.evHandler("state: NetRequestPeerMempool: len[%d]", len(mempool))

	return mempool, nil
}

// NetRequestPeerChain asks the peer for its entire chain.
func (s *State) NetRequestPeerChain(pr peer.Peer) ([]database.Block, error) {
	s.evHandler("state: NetRequestPeerChain: started: %s", pr.Host)
	defer s.evHandler("state: NetRequestPeerChain: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/blockchain", fmt.Sprintf(baseURL, pr.Host))

	var blocks []database.Block
	if err := send(http.MethodGet, url, nil, &blocks); err != nil {
		return nil, err
	}

	s.evHandler("state: NetRequestPeerChain: found blocks[%d]", len(blocks))

	return blocks, nil
}

// NetRequestAddPeer lets the peer know this node is available.
func (s *State) NetRequestAddPeer(pr peer.Peer) error {
	s.evHandler("state: NetRequestAddPeer: started: %s", pr.Host)
	defer s.evHandler("state: NetRequestAddPeer: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/peers", fmt.Sprintf(baseURL, pr.Host))

	return send(http.MethodPost, url, peer.New(s.host), nil)
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func send(method string, url string, dataSend any, dataRecv any) error {
	var req *http.Request

	switch {
	case dataSend != nil:
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		req, err = http.NewRequest(method, url, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

	default:
		var err error
		req, err = http.NewRequest(method, url, nil)
		if err != nil {
			return err
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return errors.New(string(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
