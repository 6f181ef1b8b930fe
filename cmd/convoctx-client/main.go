package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/peterh/liner"

	"github.com/savdolab/convoctx/pkg/chat"
	"github.com/savdolab/convoctx/pkg/config"
	"github.com/savdolab/convoctx/pkg/contextengine"
	"github.com/savdolab/convoctx/pkg/log"
)

// Constants for the command-line interface
const (
	cmdHelp     = "!help"
	cmdQuit     = "!quit"
	cmdConv     = "!conv"
	cmdCustomer = "!customer"
	cmdMessage  = "!message"
	cmdContext  = "!context"
	cmdInsights = "!insights"
	cmdSummary  = "!summary"
	cmdClear    = "!clear"
	cmdStats    = "!stats"
	cmdLangs    = "!langs"
)

// Command-line help text
const helpText = `
ConvoCtx Client - Command Reference:
-----------------------------------------
!help              - Show this help message
!conv <id>         - Set the current conversation ID
!customer <id>     - Set the current customer ID
!message <text>    - Feed a customer message into the context engine
!context           - Show the assembled conversation context
!insights          - Show synthesized memory insights
!summary           - Show the conversation summary
!clear             - Clear the cached context (memory is untouched)
!stats             - Show cache statistics
!langs             - Show the language distribution over cached contexts
!quit              - Exit the application

Notes:
- Regular text input is treated as a customer message
- Tab completion is available for commands
- Use up/down arrows for command history`

// historyFile is the file where command history is stored
const historyFile = ".convoctx_history"

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Optional .env for store credentials and overrides
	_ = godotenv.Load()

	log.Setup(log.Config{
		Level:  log.InfoLevel,
		Format: log.TextFormat,
	})

	log.Info("Starting ConvoCtx client")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	engine, cleanup, err := contextengine.NewEngineFromConfig(context.Background(), cfg)
	if err != nil {
		log.Error("Failed to initialize context engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			log.Error("Failed to shut down cleanly", "error", err)
		}
	}()

	runCLI(engine, cfg)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(path)
}

// runCLI starts the command-line interface for user interaction
func runCLI(engine *contextengine.Engine, cfg *config.Config) {
	key := chat.NewKey("demo-conversation", "demo-customer")

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(false)

	line.SetCompleter(func(line string) (c []string) {
		commands := []string{cmdHelp, cmdQuit, cmdConv, cmdCustomer, cmdMessage, cmdContext, cmdInsights, cmdSummary, cmdClear, cmdStats, cmdLangs}
		for _, cmd := range commands {
			if strings.HasPrefix(cmd, line) {
				c = append(c, cmd)
			}
		}
		return
	})

	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Println("\n=== ConvoCtx Client ===")
	fmt.Println("KV Provider:", displayName(cfg.Memory.KV.Provider))
	fmt.Println("Stores Driver:", displayName(cfg.Stores.Driver))
	fmt.Printf("Conversation: %s | Customer: %s\n", key.ConversationID, key.CustomerID)
	fmt.Println("Type !help for available commands.")

	for {
		prompt := fmt.Sprintf("convoctx::%s@%s> ", key.CustomerID, key.ConversationID)
		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nGoodbye!")
				break
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		if input == cmdQuit {
			fmt.Println("Goodbye!")
			break
		}

		processCommand(input, engine, &key)
	}
}

func displayName(value string) string {
	if value == "" {
		return "mock"
	}
	return value
}

// processCommand handles a single command line
func processCommand(input string, engine *contextengine.Engine, key *chat.Key) {
	ctx := context.Background()

	if !strings.HasPrefix(input, "!") {
		// Bare text is a customer message
		feedMessage(ctx, engine, *key, input)
		return
	}

	parts := strings.SplitN(input, " ", 2)
	cmd := parts[0]
	arg := ""
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case cmdHelp:
		fmt.Println(helpText)

	case cmdConv:
		if arg == "" {
			fmt.Printf("Current conversation: %s\n", key.ConversationID)
			return
		}
		key.ConversationID = chat.ConversationID(arg)
		fmt.Printf("Conversation set to: %s\n", key.ConversationID)

	case cmdCustomer:
		if arg == "" {
			fmt.Printf("Current customer: %s\n", key.CustomerID)
			return
		}
		key.CustomerID = chat.CustomerID(arg)
		fmt.Printf("Customer set to: %s\n", key.CustomerID)

	case cmdMessage:
		if arg == "" {
			fmt.Println("Message text required")
			return
		}
		feedMessage(ctx, engine, *key, arg)

	case cmdContext:
		snapshot, err := engine.GetOrCreateContext(ctx, *key)
		if err != nil {
			fmt.Printf("Error assembling context: %v\n", err)
			return
		}
		printJSON(snapshot)

	case cmdInsights:
		insights, err := engine.GetMemoryInsights(ctx, *key)
		if err != nil {
			fmt.Printf("Error deriving insights: %v\n", err)
			return
		}
		printJSON(insights)

	case cmdSummary:
		summary, err := engine.GetConversationSummary(ctx, *key)
		if err != nil {
			fmt.Printf("Error building summary: %v\n", err)
			return
		}
		fmt.Println(summary)

	case cmdClear:
		engine.ClearContext(*key)
		fmt.Println("Context cleared (memory preserved)")

	case cmdStats:
		stats := engine.GetContextStats()
		fmt.Printf("Active conversations: %d | Cache size: %d\n", stats.ActiveConversations, stats.CacheSize)

	case cmdLangs:
		distribution := engine.GetLanguageDistribution()
		if len(distribution) == 0 {
			fmt.Println("No cached contexts yet")
			return
		}
		for code, count := range distribution {
			fmt.Printf("%s: %d\n", code, count)
		}

	default:
		fmt.Printf("Unknown command: %s\nType !help for available commands.\n", cmd)
	}
}

func feedMessage(ctx context.Context, engine *contextengine.Engine, key chat.Key, text string) {
	snapshot, err := engine.UpdateContext(ctx, key, text, true)
	if err != nil {
		fmt.Printf("Error updating context: %v\n", err)
		return
	}
	fmt.Printf("intent=%s confidence=%.2f state=%s language=%s\n",
		snapshot.Intent,
		snapshot.Confidence,
		snapshot.CurrentState,
		snapshot.Language.DetectedLanguage.Code)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Error rendering output: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
