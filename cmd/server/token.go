package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	jwttoken "grameengo/internal/jwt_token"
	"grameengo/internal/platform/config"
	id "grameengo/pkg/domain"
	"grameengo/pkg/email"
)

// tokenCmd mints a bearer token signed with the configured key. Tokens are
// normally issued by the identity provider; this is for local runs.
func tokenCmd(envFile *string) *cobra.Command {
	var (
		userID    string
		role      string
		mfiID     string
		name      string
		emailAddr string
		ttl       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			if cfg.Server.IsProduction() {
				return errors.New("token minting is disabled in production")
			}

			actor, err := tokenActor(userID, role, mfiID)
			if err != nil {
				return err
			}
			actor.Name = name
			actor.Email = emailAddr
			if actor.Name == "" && actor.Email != "" {
				actor.Name = email.DisplayName(actor.Email)
			}

			svc := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
			token, err := svc.GenerateAccessToken(actor, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID (default: random)")
	cmd.Flags().StringVar(&role, "role", string(id.RoleBorrower), "borrower, officer or admin")
	cmd.Flags().StringVar(&mfiID, "mfi", "", "MFI ID an officer is scoped to")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&emailAddr, "email", "", "Email; also names the user when --name is empty")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func tokenActor(userID, role, mfiID string) (id.Actor, error) {
	r, err := id.ParseRole(role)
	if err != nil {
		return id.Actor{}, err
	}
	actor := id.Actor{ID: id.UserID(uuid.New()), Role: r}
	if userID != "" {
		if actor.ID, err = id.ParseUserID(userID); err != nil {
			return id.Actor{}, err
		}
	}
	if mfiID != "" {
		if r != id.RoleOfficer {
			return id.Actor{}, errors.New("--mfi only applies to officers")
		}
		if actor.MFIID, err = id.ParseMFIID(mfiID); err != nil {
			return id.Actor{}, err
		}
	}
	return actor, nil
}
