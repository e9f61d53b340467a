package main

import (
	"context"
	"fmt"

	"newsdesk/internal/directory"
	"newsdesk/internal/model"
	"newsdesk/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	actorID       string
	actorUsername string
	actorEmail    string
	actorRole     string

	publisherName        string
	publisherDescription string
	memberRole           string
)

// openDirectory connects in CLIENT MODE (Redis only) so admin commands can
// run next to a live server holding the Badger lock.
func openDirectory() (*directory.RedisDirectory, func()) {
	st, err := store.NewHybridStore(cfg.Redis.Addr, "")
	if err != nil {
		logger.Fatal("Failed to init store", zap.Error(err))
	}
	return directory.NewRedisDirectory(st.Redis()), st.Close
}

var actorCmd = &cobra.Command{
	Use:   "actor",
	Short: "Manage actor records",
}

var actorCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Activate an account and assign its role",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, ok := model.ParseRole(actorRole)
		if !ok {
			return fmt.Errorf("unknown role %q (want Reader, Journalist or Editor)", actorRole)
		}

		dir, closeFn := openDirectory()
		defer closeFn()

		actor := model.Actor{ID: actorID, Username: actorUsername, Email: actorEmail, Role: role}
		if err := dir.CreateActor(context.Background(), actor); err != nil {
			return err
		}
		logger.Info("Actor created", zap.String("id", actorID), zap.String("role", string(role)))
		return nil
	},
}

var actorListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the ids of actors holding a role",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, ok := model.ParseRole(actorRole)
		if !ok {
			return fmt.Errorf("unknown role %q (want Reader, Journalist or Editor)", actorRole)
		}

		dir, closeFn := openDirectory()
		defer closeFn()

		ids, err := dir.ActorsWithRole(context.Background(), role)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var publisherCmd = &cobra.Command{
	Use:   "publisher",
	Short: "Manage publishers and their members",
}

var publisherCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a publisher",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, closeFn := openDirectory()
		defer closeFn()

		p, err := dir.CreatePublisher(context.Background(), publisherName, publisherDescription)
		if err != nil {
			return err
		}
		logger.Info("Publisher created", zap.String("id", p.ID), zap.String("name", p.Name))
		fmt.Println(p.ID)
		return nil
	},
}

var publisherAddMemberCmd = &cobra.Command{
	Use:   "add-member [publisher-id] [actor-id]",
	Short: "Affiliate an editor or journalist with a publisher",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, ok := model.ParseRole(memberRole)
		if !ok {
			return fmt.Errorf("unknown member role %q", memberRole)
		}

		dir, closeFn := openDirectory()
		defer closeFn()

		if err := dir.AddMember(context.Background(), args[0], args[1], role); err != nil {
			return err
		}
		logger.Info("Member added",
			zap.String("publisher_id", args[0]),
			zap.String("actor_id", args[1]),
			zap.String("role", string(role)))
		return nil
	},
}

func init() {
	actorCreateCmd.Flags().StringVar(&actorID, "id", "", "Actor id as issued by the identity provider")
	actorCreateCmd.Flags().StringVar(&actorUsername, "username", "", "Display name")
	actorCreateCmd.Flags().StringVar(&actorEmail, "email", "", "Notification address")
	actorCreateCmd.Flags().StringVar(&actorRole, "role", "Reader", "Reader, Journalist or Editor")
	_ = actorCreateCmd.MarkFlagRequired("id")
	actorListCmd.Flags().StringVar(&actorRole, "role", "Reader", "Reader, Journalist or Editor")
	actorCmd.AddCommand(actorCreateCmd, actorListCmd)

	publisherCreateCmd.Flags().StringVar(&publisherName, "name", "", "Unique publisher name")
	publisherCreateCmd.Flags().StringVar(&publisherDescription, "description", "", "Short description")
	_ = publisherCreateCmd.MarkFlagRequired("name")
	publisherAddMemberCmd.Flags().StringVar(&memberRole, "role", "Journalist", "Editor or Journalist")
	publisherCmd.AddCommand(publisherCreateCmd, publisherAddMemberCmd)
}
