package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/servora/realtime/internal/client"
	"github.com/servora/realtime/internal/config"
	"github.com/servora/realtime/internal/protocol"
	"github.com/servora/realtime/pkg/logger"
)

var (
	serverURL = flag.String("server", "ws://localhost:8080/ws", "broker websocket url")
	token     = flag.String("token", "", "identity token (issued by the session layer)")
	chatID    = flag.String("chat", "", "chat to join on start")
	receiver  = flag.String("to", "", "receiver user id for sent messages")
)

func main() {
	flag.Parse()
	if *token == "" {
		log.Fatal("token is required")
	}

	cfg := config.DefaultClientConfig(*serverURL)
	c := client.New(cfg, func() (string, bool) { return *token, true }, logger.NewLogger("info"))
	defer c.Close()

	for _, event := range []protocol.MessageType{
		protocol.EventNewBooking,
		protocol.EventBookingStatusUpdated,
		protocol.EventProviderVerified,
		protocol.EventProviderRejected,
		protocol.EventProviderUpdated,
		protocol.EventProviderDeleted,
	} {
		c.On(event, printEvent)
	}
	c.On(protocol.EventNewMessage, printMessage)
	c.On(protocol.TypeChatHistory, printHistory)

	c.OnReconnect(func() {
		// Ad-hoc rooms are forgotten by the server across reconnects.
		if *chatID != "" {
			if err := c.JoinRoom("chat-" + *chatID); err != nil {
				log.Printf("rejoin chat: %v", err)
			}
		}
	})
	c.OnDisconnect(func() {
		log.Println("disconnected for good")
		os.Exit(1)
	})

	if err := c.Connect(context.Background()); err != nil {
		log.Fatalf("connect: %v", err)
	}
	log.Println("connected")

	if *chatID != "" {
		if err := c.JoinRoom("chat-" + *chatID); err != nil {
			log.Fatalf("join chat: %v", err)
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		c.Close()
		os.Exit(0)
	}()

	fmt.Println("Write messages (Enter to send):")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		content := scanner.Text()
		if content == "" {
			continue
		}
		if *chatID == "" || *receiver == "" {
			log.Println("set -chat and -to to send messages")
			continue
		}
		err := c.SendChat(protocol.ChatSendRequest{
			ChatID:     *chatID,
			ReceiverID: *receiver,
			Content:    content,
		})
		if err != nil {
			log.Printf("send: %v", err)
		}
	}
}

func printEvent(env protocol.Envelope) {
	fmt.Printf("\n[%s] %s room=%s payload=%v\n", env.Timestamp.Format("15:04:05"), env.Type, env.Room, env.Payload)
}

func printMessage(env protocol.Envelope) {
	msg, err := protocol.DecodeChatMessage(env.Payload)
	if err != nil {
		log.Printf("decode message: %v", err)
		return
	}
	fmt.Printf("\n[%s] %s: %s\n", msg.CreatedAt.Format("15:04:05"), msg.SenderID, msg.Content)
}

func printHistory(env protocol.Envelope) {
	history, err := protocol.DecodeChatHistory(env.Payload)
	if err != nil {
		log.Printf("decode history: %v", err)
		return
	}
	for _, msg := range history.Messages {
		fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Format("15:04:05"), msg.SenderID, msg.Content)
	}
}
