// cmd/client/main.go
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/go-armada/pkg/event"
	"github.com/opd-ai/go-armada/pkg/network"
)

func main() {
	serverAddr := flag.String("server", "localhost:4566", "Server address")
	playerName := flag.String("name", "Player", "Player name")
	flag.Parse()

	// Create event bus
	eventBus := event.NewEventBus()

	// Create client
	client := network.NewGameClient(eventBus)

	// Connect to server
	log.Printf("Connecting to server at %s", *serverAddr)
	if err := client.Connect(*serverAddr, *playerName); err != nil {
		log.Fatalf("Failed to connect to server: %v", err)
	}
	log.Printf("Connected as player %d", client.PlayerID())

	// Subscribe to connection events
	eventBus.Subscribe(network.ClientDisconnected, func(e event.Event) {
		log.Printf("Disconnected from server")
	})

	eventBus.Subscribe(network.ClientReconnected, func(e event.Event) {
		log.Printf("Reconnected to server")
	})

	eventBus.Subscribe(network.ClientReconnectFailed, func(e event.Event) {
		log.Printf("Failed to reconnect to server")
		os.Exit(1)
	})

	// Print state updates as they arrive
	go func() {
		for snapshot := range client.GetSnapshotChannel() {
			log.Printf("Received state update: phase=%s players=%d ships=%d",
				snapshot.Phase, len(snapshot.Players), len(snapshot.Ships))
			if snapshot.Turn != nil {
				log.Printf("Turn: player=%d action_points=%d",
					snapshot.Turn.PlayerID, snapshot.Turn.ActionPoints)
			}
			if snapshot.Phase == "End" {
				fmt.Printf("Match over, winner: %s\n", snapshot.Winner)
			}
		}
	}()

	// Print action outcomes
	go func() {
		for resp := range client.GetActionResponseChannel() {
			if resp.Success {
				log.Printf("Action accepted")
			} else {
				log.Printf("Action rejected: %s", resp.Error)
			}
		}
	}()

	// Signal readiness so a lobby of ready players can advance
	go func() {
		time.Sleep(time.Second)
		log.Printf("Reporting ready")
		client.SetReady(true)
	}()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Println("Disconnecting from server...")
	client.Disconnect()
}
