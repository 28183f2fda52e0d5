package main

import (
	"fmt"
	"strings"

	"orghub/lib/models"

	"github.com/spf13/cobra"
)

func newOrgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Manage organizations and memberships",
	}

	cmd.AddCommand(
		newOrgListCmd(),
		newOrgCreateCmd(),
		newOrgMembersCmd(),
		newOrgAddUserCmd(),
		newOrgSetRoleCmd(),
		newOrgSetRolesCmd(),
		newOrgDescribeCmd(),
	)
	return cmd
}

func newOrgListCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the organizations you belong to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			var organizations []models.Organization
			if cached {
				organizations, err = a.api.CachedOrganizations()
			} else {
				var userID string
				if userID, err = a.cognitoUserID(cmd); err != nil {
					return err
				}
				organizations, err = a.api.FetchOrganizations(cmd.Context(), userID)
			}
			if err != nil {
				return err
			}

			if len(organizations) == 0 {
				fmt.Println("No organizations")
				return nil
			}
			for _, org := range organizations {
				fmt.Printf("%s\t%s\n", org.OrganizationName, org.Description)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "use the locally cached list without a network call")
	return cmd
}

func newOrgCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an organization with you as the owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			userID, err := a.cognitoUserID(cmd)
			if err != nil {
				return err
			}
			identity := a.session.Identity()

			err = a.api.CreateOrganization(cmd.Context(), models.CreateOrganizationRequest{
				OrganizationName: args[0],
				Description:      description,
				CognitoUserID:    userID,
				Name:             identity.Name,
				Email:            identity.Email,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Organization %q created\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "organization description")
	return cmd
}

func newOrgMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members <organization>",
		Short: "List an organization's members and roles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			userID, err := a.cognitoUserID(cmd)
			if err != nil {
				return err
			}

			members, err := a.api.ListMembers(cmd.Context(), args[0], userID)
			if err != nil {
				return err
			}

			for _, m := range members {
				fmt.Printf("%s\t%s\n", m.Email, m.RoleName)
			}
			return nil
		},
	}
}

func newOrgAddUserCmd() *cobra.Command {
	var role string
	var invite bool

	cmd := &cobra.Command{
		Use:   "add-user <organization> <email>",
		Short: "Add a user to an organization",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			err = a.api.AddMember(cmd.Context(), models.AddMemberRequest{
				OrganizationName: args[0],
				Email:            args[1],
				RoleName:         role,
				Invite:           invite,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Added %s to %q\n", args[1], args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&role, "role", "r", models.RoleUser, "role name")
	cmd.Flags().BoolVar(&invite, "invite", false, "also provision the identity provider account and send an invite")
	return cmd
}

func newOrgSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <organization> <email> <role>",
		Short: "Change one member's role (owner only)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			userID, err := a.cognitoUserID(cmd)
			if err != nil {
				return err
			}

			err = a.api.UpdateRole(cmd.Context(), models.UpdateRoleRequest{
				OrganizationName: args[0],
				CognitoUserID:    userID,
				Email:            args[1],
				RoleName:         args[2],
			})
			if err != nil {
				return err
			}
			fmt.Printf("Role of %s in %q set to %s\n", args[1], args[0], args[2])
			return nil
		},
	}
}

func newOrgSetRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-roles <organization> <email>=<role> [<email>=<role>...]",
		Short: "Change several roles atomically, e.g. to transfer ownership",
		Long: `Applies every change in one all-or-nothing request, so a demote and a
promote land together. Use this to transfer ownership without risking a
half-applied pair:

  orghub org set-roles Acme alice@acme.test=Administrator bob@acme.test=Organization_Owner`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			userID, err := a.cognitoUserID(cmd)
			if err != nil {
				return err
			}

			changes := make([]models.RoleChange, 0, len(args)-1)
			for _, arg := range args[1:] {
				email, role, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("invalid change %q, expected <email>=<role>", arg)
				}
				changes = append(changes, models.RoleChange{Email: email, RoleName: role})
			}

			err = a.api.UpdateRoles(cmd.Context(), models.BatchUpdateRolesRequest{
				OrganizationName: args[0],
				CognitoUserID:    userID,
				Changes:          changes,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Applied %d role change(s) in %q\n", len(changes), args[0])
			return nil
		},
	}
}

func newOrgDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <organization> <description>",
		Short: "Update an organization's description (owner or administrator)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			userID, err := a.cognitoUserID(cmd)
			if err != nil {
				return err
			}

			err = a.api.UpdateDescription(cmd.Context(), models.UpdateDescriptionRequest{
				OrganizationName: args[0],
				NewDescription:   args[1],
				CognitoUserID:    userID,
			})
			if err != nil {
				return err
			}
			fmt.Println("Description updated")
			return nil
		},
	}
}
