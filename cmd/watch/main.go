package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/config"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/logging"
)

// Starts one game against a running server and tails its event stream
// to the terminal until the game ends.
func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	if c := logging.Init(logCfg); c != nil {
		defer c.Close()
	}

	cfg, err := config.LoadWatch()
	if err != nil {
		log.Fatal().Err(err).Msg("load watch config failed")
	}
	specs, err := config.ParseModelList(cfg.Models)
	if err != nil {
		log.Fatal().Err(err).Msg("bad WATCH_MODELS")
	}

	type modelEntry struct {
		Provider string `json:"provider"`
		Model    string `json:"model"`
	}
	reqBody := struct {
		Models     []modelEntry `json:"models"`
		SecretWord string       `json:"secret_word,omitempty"`
	}{SecretWord: cfg.Secret}
	for _, spec := range specs {
		reqBody.Models = append(reqBody.Models, modelEntry{Provider: spec.Provider, Model: spec.Model})
	}
	payload, _ := json.Marshal(reqBody)

	resp, err := http.Post(cfg.ServerURL+"/api/games", "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatal().Err(err).Msg("create game failed")
	}
	var snap struct {
		SessionID string `json:"session_id"`
	}
	err = json.NewDecoder(resp.Body).Decode(&snap)
	resp.Body.Close()
	if err != nil || resp.StatusCode != http.StatusCreated {
		log.Fatal().Err(err).Int("status", resp.StatusCode).Msg("create game rejected")
	}
	log.Info().Str("session_id", snap.SessionID).Msg("game started")

	stream, err := http.Get(cfg.ServerURL + "/api/games/" + snap.SessionID + "/events")
	if err != nil {
		log.Fatal().Err(err).Msg("open event stream failed")
	}
	defer stream.Body.Close()

	rd := bufio.NewReader(stream.Body)
	var eventName string
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			log.Fatal().Err(err).Msg("event stream closed")
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			eventName = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if done := printEvent(eventName, strings.TrimPrefix(line, "data: ")); done {
				return
			}
		}
	}
}

// printEvent renders one stream event and reports whether the game is
// over.
func printEvent(name, data string) bool {
	var ev struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return false
	}
	switch name {
	case "phase_change":
		fmt.Printf("\n== phase: %v ==\n", ev.Data["phase"])
	case "discussion_round":
		fmt.Printf("-- round %v --\n", ev.Data["round"])
	case "message":
		fmt.Printf("[%v] %v: %v\n", ev.Data["type"], ev.Data["player"], ev.Data["content"])
	case "game_complete":
		fmt.Printf("\nwinner: %v\n", ev.Data["winner_side"])
		fmt.Printf("secret word: %v\n", ev.Data["secret_word"])
		fmt.Printf("eliminated: %v\n", ev.Data["eliminated_player"])
		return true
	case "error":
		fmt.Printf("\ngame failed: %v\n", ev.Data["message"])
		return true
	}
	return false
}
