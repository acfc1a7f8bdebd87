package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type BlockStream struct {
	Id                string `json:"id"`
	Height            int64  `json:"height"`
	Version           int64  `json:"version"`
	Timestamp         int64  `json:"timestamp"`
	TxCount           int64  `json:"tx_count"`
	Size              int64  `json:"size"`
	Weight            int64  `json:"weight"`
	MerkleRoot        string `json:"merkle_root"`
	Previousblockhash string `json:"previousblockhash"`
	Mediantime        int64  `json:"mediantime"`
	Nonce             int64  `json:"nonce"`
	Bits              int64  `json:"bits"`
	Difficulty        int64  `json:"difficulty"`
}

// blockSource reads blocks from an esplora compatible API.
type blockSource struct {
	base   string
	client *http.Client
}

func (s *blockSource) latest() (BlockStream, error) {
	hash, err := s.get("/blocks/tip/hash")
	if err != nil {
		return BlockStream{}, err
	}
	h := strings.TrimSpace(string(hash))
	if len(h) != 64 {
		return BlockStream{}, fmt.Errorf("invalid hash %q", h)
	}
	body, err := s.get("/block/" + h)
	if err != nil {
		return BlockStream{}, err
	}
	var block BlockStream
	if err = json.Unmarshal(body, &block); err != nil {
		return BlockStream{}, err
	}
	if block.Id != h {
		return BlockStream{}, fmt.Errorf("asked for block %s, got %s", h, block.Id)
	}
	return block, nil
}

func (s *blockSource) get(path string) ([]byte, error) {
	if s.client == nil {
		s.client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequest("GET", strings.TrimSuffix(s.base, "/")+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("http response error code %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
