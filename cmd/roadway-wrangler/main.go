package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	roadway "github.com/theoremus-urban-solutions/roadway-wrangler"
	"github.com/theoremus-urban-solutions/roadway-wrangler/config"
)

var (
	networkPath   string
	cardPath      string
	selectionPath string
	outPath       string
	configPath    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "roadway-wrangler",
		Short: "Select and edit roadway network links and nodes",
		Long: "Loads a roadway network from JSON, resolves declarative selections and\n" +
			"applies change cards: property changes, additions and deletions.",
	}
	rootCmd.PersistentFlags().StringVar(&networkPath, "network", "", "network JSON file")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "engine config YAML (optional)")

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a YAML change card to a network",
		RunE:  runApply,
	}
	applyCmd.Flags().StringVar(&cardPath, "card", "", "change card YAML file")
	applyCmd.Flags().StringVar(&outPath, "out", "", "output network JSON file")
	applyCmd.MarkFlagRequired("card")
	applyCmd.MarkFlagRequired("out")

	selectCmd := &cobra.Command{
		Use:   "select",
		Short: "Resolve a selection and print the matched IDs",
		RunE:  runSelect,
	}
	selectCmd.Flags().StringVar(&selectionPath, "selection", "", "selection YAML file")
	selectCmd.MarkFlagRequired("selection")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Print network table sizes and columns",
		RunE:  runInfo,
	}

	rootCmd.AddCommand(applyCmd, selectCmd, infoCmd)
	rootCmd.MarkPersistentFlagRequired("network")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func openNetwork() (*roadway.Network, error) {
	var cfg config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	n, err := loadNetwork(networkPath)
	if err != nil {
		return nil, err
	}
	return roadway.NewNetwork(n.Links, n.Nodes, n.Shapes, roadway.WithConfig(cfg)), nil
}

func runApply(cmd *cobra.Command, args []string) error {
	net, err := openNetwork()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(cardPath)
	if err != nil {
		return err
	}
	card, err := roadway.ParseChangeCard(data)
	if err != nil {
		return err
	}
	if err := net.ApplyCard(card); err != nil {
		return err
	}
	if err := net.Validate(); err != nil {
		return fmt.Errorf("network invalid after card: %w", err)
	}
	if err := saveNetwork(net, outPath); err != nil {
		return err
	}
	fmt.Printf("applied %d changes from %q, wrote %s\n", len(card.Changes), card.Project, outPath)
	return nil
}

func runSelect(cmd *cobra.Command, args []string) error {
	net, err := openNetwork()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(selectionPath)
	if err != nil {
		return err
	}
	var dict roadway.SelectionDict
	if err := yaml.Unmarshal(data, &dict); err != nil {
		return fmt.Errorf("decoding selection: %w", err)
	}
	sel, err := net.Selection(dict, nil)
	if err != nil {
		return err
	}

	fmt.Printf("type: %s\n", sel.Type)
	if ids := sel.LinkIDs(); len(ids) > 0 {
		fmt.Printf("links (%d): %v\n", len(ids), ids)
	}
	if ids := sel.NodeIDs(); len(ids) > 0 {
		fmt.Printf("nodes (%d): %v\n", len(ids), ids)
	}
	if seg := sel.Segment(); seg != nil {
		fmt.Printf("route nodes: %v (found after %d expansions)\n", seg.RouteNodes(), seg.Iterations())
	}
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	net, err := openNetwork()
	if err != nil {
		return err
	}
	fmt.Printf("links:  %d rows, columns %v\n", net.Links.Len(), net.Links.Columns())
	fmt.Printf("nodes:  %d rows, columns %v\n", net.Nodes.Len(), net.Nodes.Columns())
	fmt.Printf("shapes: %d rows\n", net.Shapes.Len())
	fmt.Printf("hash:   %s\n", net.ContentHash())
	if err := net.Validate(); err != nil {
		fmt.Printf("integrity: FAILED (%v)\n", err)
		return nil
	}
	fmt.Println("integrity: ok")
	return nil
}
