package main

import (
	"context"
	"diningbot-backend/cmd/dining-cli/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
