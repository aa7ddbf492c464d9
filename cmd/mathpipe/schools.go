package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/realmath/problempipeline/internal/console"
	"github.com/realmath/problempipeline/internal/schools"
	"github.com/realmath/problempipeline/internal/services"
)

func newSchoolsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schools",
		Short: "Fetch, check and upload the school directory",
	}
	cmd.AddCommand(
		newSchoolsFetchCmd(a),
		newSchoolsUploadCmd(a),
		newSchoolsDuplicatesCmd(a),
	)
	return cmd
}

func newSchoolsFetchCmd(a *app) *cobra.Command {
	var out string
	var kinds []string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download every school from the NEIS open API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				out = a.cfg.SchoolsFile
			}
			if a.cfg.NEISAPIKey == "" {
				slog.Warn("No NEIS API key configured (MATHPIPE_NEIS_API_KEY); the API only returns sample rows without one")
			}
			client := schools.NewClient(schools.Options{
				BaseURL:  a.cfg.NEISBaseURL,
				APIKey:   a.cfg.NEISAPIKey,
				PageSize: a.cfg.NEISPageSize,
			})
			return runSchoolsFetch(cmd.Context(), cmd.OutOrStdout(), client, kinds, out)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output JSON path (default from config schools_file)")
	cmd.Flags().StringSliceVar(&kinds, "kind", schools.DefaultKinds, "School kinds to fetch")
	return cmd
}

func runSchoolsFetch(ctx context.Context, w io.Writer, client *schools.Client, kinds []string, out string) error {
	list, err := client.FetchAll(ctx, kinds)
	if err != nil {
		return err
	}
	if err := schools.Save(out, list); err != nil {
		return err
	}
	console.FormatResult(w, true, fmt.Sprintf("Successfully fetched and saved %d schools to %s", len(list), out))
	return nil
}

func newSchoolsUploadCmd(a *app) *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Replace the Firestore schools collection",
		Long: `Deletes every document in the schools collection, then uploads one document
per school with a school_name_only field that has the region prefix removed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in == "" {
				in = a.cfg.SchoolsFile
			}
			list, err := schools.Load(in)
			if err != nil {
				return fmt.Errorf("%w (run 'mathpipe schools fetch' first)", err)
			}

			ctx := cmd.Context()
			client, err := a.firestoreClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			w := cmd.OutOrStdout()
			console.FormatHeader(w, "Firebase School Uploader")
			summary, err := services.NewSchoolUploader(client, a.cfg.SchoolsCollection, a.cfg.BatchLimit).Upload(ctx, list)
			console.FormatSummary(w, "SCHOOL UPLOAD", []console.Row{
				console.Count("Deleted", summary.Deleted, console.Plain),
				console.Count("Uploaded", summary.Uploaded, console.Good),
				console.Count("Failed", summary.Failed, console.Bad),
			})
			return err
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "Schools JSON (default from config schools_file)")
	return cmd
}

func newSchoolsDuplicatesCmd(a *app) *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "List school names that collide once the region prefix is removed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in == "" {
				in = a.cfg.SchoolsFile
			}
			return runSchoolsDuplicates(cmd.OutOrStdout(), in)
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "Schools JSON (default from config schools_file)")
	return cmd
}

func runSchoolsDuplicates(w io.Writer, in string) error {
	list, err := schools.Load(in)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(list))
	for _, s := range list {
		names = append(names, s.SchoolName)
	}

	dups := schools.FindDuplicates(names)
	fmt.Fprintf(w, "Found %d duplicate school names if prefix is removed.\n", len(dups))
	for _, d := range dups {
		fmt.Fprintf(w, "- %s: %v\n", d.Unprefixed, d.Names)
	}
	return nil
}
