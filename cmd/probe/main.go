// Command probe exercises a running guildmain server: it posts a guild
// query and prints the grouped member summary.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type memberResult struct {
	Member          string  `json:"member"`
	IsMain          bool    `json:"isMainCharacter"`
	MainName        *string `json:"mainCharacterName"`
	MainInGuild     bool    `json:"isMainCharacterInGuild"`
	CharacterLevel  int     `json:"characterLevel"`
	CharacterClass  string  `json:"characterClass"`
	CharacterAccess bool    `json:"characterAccess"`
}

type group struct {
	MainCharacter string         `json:"mainCharacter"`
	Members       []memberResult `json:"members"`
}

type membersResponse struct {
	MemberStatus []memberResult `json:"memberStatus"`
	Groups       []group        `json:"groups"`
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:3141", "server base URL")
	guild := flag.String("guild", "", "guild name (required)")
	world := flag.String("world", "엘리시움", "world name")
	timeout := flag.Duration("timeout", 15*time.Minute, "request timeout; roster runs are paced and slow")
	flag.Parse()

	if *guild == "" {
		flag.Usage()
		os.Exit(2)
	}

	body, err := json.Marshal(map[string]string{"guild": *guild, "world": *world})
	if err != nil {
		log.Fatalf("marshal request: %v", err)
	}

	client := &http.Client{Timeout: *timeout}
	start := time.Now()

	resp, err := client.Post(*baseURL+"/api/guild/members?view=grouped", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("server returned %d: %s", resp.StatusCode, raw)
	}

	var mr membersResponse
	if err := json.Unmarshal(raw, &mr); err != nil {
		log.Fatalf("decode response: %v", err)
	}

	fmt.Printf("guild %q on %q: %d members, %d mains, took %s\n",
		*guild, *world, len(mr.MemberStatus), countMains(mr.MemberStatus), time.Since(start).Round(time.Millisecond))

	for _, g := range mr.Groups {
		outsider := ""
		for _, m := range g.Members {
			if !m.MainInGuild {
				outsider = " (타길드)"
				break
			}
		}
		fmt.Printf("\n본캐 %s%s\n", g.MainCharacter, outsider)
		for _, m := range g.Members {
			marker := " "
			if m.IsMain {
				marker = "*"
			}
			fmt.Printf("  %s %-16s lv.%-4d %s\n", marker, m.Member, m.CharacterLevel, m.CharacterClass)
		}
	}
}

func countMains(results []memberResult) int {
	n := 0
	for _, r := range results {
		if r.IsMain {
			n++
		}
	}
	return n
}
