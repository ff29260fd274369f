package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jsedlak/cabjobs/internal/catalog"
	"github.com/jsedlak/cabjobs/internal/common"
	"github.com/jsedlak/cabjobs/internal/export"
	"github.com/jsedlak/cabjobs/internal/jobs"
	"github.com/jsedlak/cabjobs/internal/repository"
	"github.com/jsedlak/cabjobs/internal/worklist"
)

type app struct {
	cfg      *common.Config
	logger   *slog.Logger
	catalog  *catalog.Service
	jobs     *jobs.Service
	worklist *worklist.Generator
	export   *export.Service
	settings repository.SettingsRepository
	tmplRepo repository.TemplateRepository
	close    func()
}

func newApp(ctx context.Context) (*app, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := repository.Open(ctx, cfg.Database.Path, logger)
	if err != nil {
		return nil, err
	}

	tmplRepo := repository.NewTemplateRepository(db, logger)
	jobRepo := repository.NewJobRepository(db, logger)
	settings := repository.NewSettingsRepository(db, logger)

	wl := worklist.NewGenerator(jobRepo, tmplRepo, settings,
		cfg.Storage.JobsRoot, cfg.CNC.ProgramsRoot, logger)
	jobsSvc := jobs.NewService(jobRepo, tmplRepo, wl, cfg.Storage.JobsRoot, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		catalog:  catalog.NewService(tmplRepo, cfg.Storage.CatalogRoot, logger),
		jobs:     jobsSvc,
		worklist: wl,
		export:   export.NewService(jobRepo, tmplRepo, logger),
		settings: settings,
		tmplRepo: tmplRepo,
		close: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			jobsSvc.Shutdown(shutdownCtx)
			repository.Close(db, logger)
		},
	}, nil
}

func main() {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "startup:", err)
		os.Exit(1)
	}
	root := &cobra.Command{
		Use:           "cabjobs",
		Short:         "Cabinet job manager: templates, jobs, CNC worklists",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		a.importCmd(),
		a.templateCmd(),
		a.jobCmd(),
		a.itemCmd(),
		a.recalcCmd(),
		a.worklistCmd(),
		a.exportCmd(),
		a.settingsCmd(),
	)

	err = root.ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <name> <source-dir>",
		Short: "Import a part-program source directory as a cabinet template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := a.catalog.ImportTemplate(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("imported %s (%s): %d files, %d parameters\n",
				tmpl.Slug, tmpl.ID, len(tmpl.Files), len(tmpl.Parameters))
			return nil
		},
	}
}

func (a *app) templateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "template", Short: "Template maintenance"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List imported templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := a.tmplRepo.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range templates {
				fmt.Printf("%s\t%s\t%s\n", t.ID, t.Slug, t.Name)
			}
			return nil
		},
	})

	var width, height, depth float64
	setDims := &cobra.Command{
		Use:   "set-dims <template-id>",
		Short: "Update base dimensions and propagate them into the source files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			var w, h, d *float64
			if cmd.Flags().Changed("width") {
				w = &width
			}
			if cmd.Flags().Changed("height") {
				h = &height
			}
			if cmd.Flags().Changed("depth") {
				d = &depth
			}
			return a.catalog.UpdateBaseDimensions(cmd.Context(), id, w, h, d)
		},
	}
	setDims.Flags().Float64Var(&width, "width", 0, "base width")
	setDims.Flags().Float64Var(&height, "height", 0, "base height")
	setDims.Flags().Float64Var(&depth, "depth", 0, "base depth")
	cmd.AddCommand(setDims)

	cmd.AddCommand(&cobra.Command{
		Use:   "set-file-qty <file-id> <quantity>",
		Short: "Set the default worklist quantity of a template file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileID, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			return a.tmplRepo.UpdateFileQuantity(cmd.Context(), fileID, qty)
		},
	})

	return cmd
}

func (a *app) jobCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "job", Short: "Job maintenance"}

	var description string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var desc *string
			if description != "" {
				desc = &description
			}
			job, err := a.jobs.CreateJob(cmd.Context(), args[0], desc)
			if err != nil {
				return err
			}
			fmt.Println(job.ID)
			return nil
		},
	}
	create.Flags().StringVar(&description, "description", "", "job description")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobList, err := a.jobs.ListJobs(cmd.Context())
			if err != nil {
				return err
			}
			for _, j := range jobList {
				fmt.Printf("%s\t%s\t%s\n", j.ID, j.Status, j.Name)
			}
			return nil
		},
	})

	var quantity int
	add := &cobra.Command{
		Use:   "add <job-id> <template-slug> <item-name>",
		Short: "Add a cabinet instance to a job",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			tmpl, err := a.tmplRepo.GetBySlug(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			item, err := a.jobs.AddCabinetToJob(cmd.Context(), jobID, tmpl.ID, args[2], quantity)
			if err != nil {
				return err
			}
			fmt.Println(item.ID)
			return nil
		},
	}
	add.Flags().IntVar(&quantity, "quantity", 1, "item quantity")
	cmd.AddCommand(add)

	return cmd
}

func (a *app) itemCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "item", Short: "Job item maintenance"}

	var name string
	var width, height, depth float64
	var quantity int
	var params []string
	edit := &cobra.Command{
		Use:   "edit <item-id>",
		Short: "Edit a job item; regeneration re-fires unconditionally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			var e jobs.ItemEdit
			if cmd.Flags().Changed("name") {
				e.Name = &name
			}
			if cmd.Flags().Changed("width") {
				e.Width = &width
			}
			if cmd.Flags().Changed("height") {
				e.Height = &height
			}
			if cmd.Flags().Changed("depth") {
				e.Depth = &depth
			}
			if cmd.Flags().Changed("quantity") {
				e.Quantity = &quantity
			}
			if len(params) > 0 {
				e.Parameters = map[string]string{}
				for _, kv := range params {
					k, v, ok := strings.Cut(kv, "=")
					if !ok {
						return fmt.Errorf("bad --param %q, expected NAME=VALUE", kv)
					}
					e.Parameters[k] = v
				}
			}
			_, err = a.jobs.UpdateItem(cmd.Context(), id, e)
			return err
		},
	}
	edit.Flags().StringVar(&name, "name", "", "item name")
	edit.Flags().Float64Var(&width, "width", 0, "width override")
	edit.Flags().Float64Var(&height, "height", 0, "height override")
	edit.Flags().Float64Var(&depth, "depth", 0, "depth override")
	edit.Flags().IntVar(&quantity, "quantity", 1, "item quantity")
	edit.Flags().StringArrayVar(&params, "param", nil, "parameter override NAME=VALUE (repeatable)")
	cmd.AddCommand(edit)

	cmd.AddCommand(&cobra.Command{
		Use:   "file-qty <item-id> <file-id> <quantity>",
		Short: "Override one part file's worklist quantity for an item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			fileID, err := uuid.Parse(args[1])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[2])
			if err != nil {
				return err
			}
			return a.jobs.SetItemFileQuantity(cmd.Context(), itemID, fileID, qty)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <item-id>",
		Short: "Delete a job item and its regenerated directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			return a.jobs.DeleteItem(cmd.Context(), id)
		},
	})

	return cmd
}

func (a *app) recalcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recalc <item-id>",
		Short: "Regenerate an item's part files synchronously",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			return a.jobs.Recalculate(cmd.Context(), id)
		},
	}
}

func (a *app) worklistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worklist <item-id>",
		Short: "Write the CNC worklist manifest for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			if !a.worklist.Generate(cmd.Context(), id) {
				return fmt.Errorf("worklist generation failed for %s", id)
			}
			return nil
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <job-id>",
		Short: "Export a job summary workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			data, err := a.export.ExportJobXLSX(cmd.Context(), id)
			if err != nil {
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&out, "out", "job.xlsx", "output path")
	return cmd
}

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "settings", Short: "Runtime settings"}
	cmd.AddCommand(&cobra.Command{
		Use:   "set-cnc-root <path>",
		Short: "Override the CNC programs root written into worklists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.settings.Set(cmd.Context(), repository.SettingCNCProgramsRoot, args[0])
		},
	})
	return cmd
}
