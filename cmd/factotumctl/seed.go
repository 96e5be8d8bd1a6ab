package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/factotum/internal/classifications"
	"github.com/JaimeStill/factotum/internal/documents"
	"github.com/JaimeStill/factotum/internal/products"
	"github.com/JaimeStill/factotum/internal/pucs"
	"github.com/JaimeStill/factotum/internal/qa"
)

type seedOptions struct {
	seed       int64
	categories int
	families   int
	types      int
	products   int
	documents  int
	scripts    int
	groups     int
}

var genCats = []string{
	"Arts and crafts",
	"Automotive care",
	"Cleaning products and household care",
	"Home maintenance",
	"Landscape/yard",
	"Personal care",
	"Pesticides",
	"Pet care",
	"Sports equipment",
	"Electronics/small appliances",
}

var pucKinds = []pucs.Kind{pucs.KindFormulation, pucs.KindArticle, pucs.KindOccupation}

var linkMethods = []classifications.MethodCode{
	classifications.MethodManual,
	classifications.MethodRule,
	classifications.MethodManualBatch,
	classifications.MethodBulk,
	classifications.MethodAutomatic,
}

// plannedLink and plannedText refer to rows by their index in the plan,
// since ids only exist once the rows are written.
type plannedLink struct {
	product    int
	puc        int
	method     classifications.MethodCode
	confidence *float64
}

type plannedText struct {
	document int
	script   int
	cmd      qa.RegisterTextCommand
}

type plannedProduct struct {
	document int
	cmd      products.CreateCommand
}

type seedPlan struct {
	pucs      []pucs.CreateCommand
	documents []documents.CreateCommand
	products  []plannedProduct
	links     []plannedLink
	scripts   []qa.CreateScriptCommand
	texts     []plannedText
}

// newSeedPlan generates a deterministic data set for opts.seed. Every
// document gets exactly one extracted text.
func newSeedPlan(opts seedOptions) *seedPlan {
	f := gofakeit.New(opts.seed)
	plan := &seedPlan{}

	plan.pucs = planPUCs(f, opts)

	groups := make([]string, max(opts.groups, 1))
	for i := range groups {
		groups[i] = fmt.Sprintf("%s %d", f.Company(), i+1)
	}

	for i := range opts.documents {
		name := fmt.Sprintf("sds-%04d-%s.txt", i+1, strings.ToLower(f.Noun()))
		plan.documents = append(plan.documents, documents.CreateCommand{
			Data:         []byte(f.Paragraph(2, 4, 12, "\n")),
			Filename:     name,
			ContentType:  "text/plain",
			Title:        f.ProductName() + " SDS",
			DataGroup:    f.RandomString(groups),
			DocumentType: "SD",
		})
	}

	upcs := make(map[string]bool)
	for i := range opts.products {
		upc := f.Numerify("############")
		for upcs[upc] {
			upc = f.Numerify("############")
		}
		upcs[upc] = true

		doc := -1
		if len(plan.documents) > 0 {
			doc = i % len(plan.documents)
		}

		plan.products = append(plan.products, plannedProduct{
			document: doc,
			cmd: products.CreateCommand{
				Title:        f.ProductName(),
				UPC:          upc,
				Manufacturer: f.Company(),
				BrandName:    f.Company(),
			},
		})

		if len(plan.pucs) == 0 {
			continue
		}

		methods := append([]classifications.MethodCode(nil), linkMethods...)
		f.ShuffleAnySlice(methods)
		for _, m := range methods[:f.Number(1, 3)] {
			link := plannedLink{
				product: i,
				puc:     f.Number(0, len(plan.pucs)-1),
				method:  m,
			}
			if m == classifications.MethodAutomatic {
				c := float64(f.Number(50, 100)) / 100
				link.confidence = &c
			}
			plan.links = append(plan.links, link)
		}
	}

	for range opts.scripts {
		plan.scripts = append(plan.scripts, qa.CreateScriptCommand{
			Title: f.AppName() + " extractor",
			URL:   f.URL(),
		})
	}

	if len(plan.scripts) > 0 {
		for i := range plan.documents {
			plan.texts = append(plan.texts, plannedText{
				document: i,
				script:   f.Number(0, len(plan.scripts)-1),
				cmd: qa.RegisterTextCommand{
					ProdName: f.ProductName(),
					DocDate:  f.Date().Format("2006-01-02"),
					RevNum:   f.Numerify("#.#"),
				},
			})
		}
	}

	return plan
}

// planPUCs lays out categories, then families under each, then types under
// each family. Names are unique among siblings so every path is distinct.
func planPUCs(f *gofakeit.Faker, opts seedOptions) []pucs.CreateCommand {
	cats := append([]string(nil), genCats...)
	f.ShuffleStrings(cats)
	cats = cats[:min(opts.categories, len(cats))]

	var cmds []pucs.CreateCommand
	for _, cat := range cats {
		kind := pucKinds[f.Number(0, len(pucKinds)-1)]
		cmds = append(cmds, pucs.CreateCommand{
			Kind:        kind,
			GenCat:      cat,
			Description: f.Sentence(8),
		})

		for _, fam := range uniqueNouns(f, opts.families) {
			cmds = append(cmds, pucs.CreateCommand{
				Kind:        kind,
				GenCat:      cat,
				ProdFam:     fam,
				Description: f.Sentence(8),
			})

			for _, typ := range uniqueNouns(f, opts.types) {
				cmds = append(cmds, pucs.CreateCommand{
					Kind:        kind,
					GenCat:      cat,
					ProdFam:     fam,
					ProdType:    typ,
					Description: f.Sentence(8),
				})
			}
		}
	}
	return cmds
}

func uniqueNouns(f *gofakeit.Faker, n int) []string {
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for len(out) < n {
		w := strings.ToLower(f.Noun())
		if seen[w] {
			w = fmt.Sprintf("%s %d", w, len(out)+1)
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

type seedResult struct {
	PUCs      int `json:"pucs"`
	Documents int `json:"documents"`
	Products  int `json:"products"`
	Links     int `json:"links"`
	Scripts   int `json:"scripts"`
	Texts     int `json:"texts"`
}

func (p *seedPlan) apply(ctx context.Context, d *app) (*seedResult, error) {
	result := &seedResult{}

	pucIDs := make([]uuid.UUID, len(p.pucs))
	for i, cmd := range p.pucs {
		puc, err := d.domain.PUCs.Create(ctx, cmd)
		if err != nil {
			return result, fmt.Errorf("create puc %s: %w", cmd.GenCat, err)
		}
		pucIDs[i] = puc.ID
		result.PUCs++
	}

	docIDs := make([]uuid.UUID, len(p.documents))
	for i, cmd := range p.documents {
		doc, err := d.domain.Documents.Create(ctx, cmd)
		if err != nil {
			return result, fmt.Errorf("create document %s: %w", cmd.Filename, err)
		}
		docIDs[i] = doc.ID
		result.Documents++
	}

	productIDs := make([]uuid.UUID, len(p.products))
	for i, pp := range p.products {
		cmd := pp.cmd
		if pp.document >= 0 {
			cmd.DocumentID = &docIDs[pp.document]
		}
		product, err := d.domain.Products.Create(ctx, cmd)
		if err != nil {
			return result, fmt.Errorf("create product %s: %w", cmd.UPC, err)
		}
		productIDs[i] = product.ID
		result.Products++
	}

	for _, l := range p.links {
		_, err := d.domain.Classifications.Assign(ctx, classifications.AssignCommand{
			ProductID:  productIDs[l.product],
			PUCID:      pucIDs[l.puc],
			Method:     l.method,
			Confidence: l.confidence,
		})
		if err != nil {
			return result, fmt.Errorf("assign %s: %w", l.method, err)
		}
		result.Links++
	}

	scriptIDs := make([]uuid.UUID, len(p.scripts))
	for i, cmd := range p.scripts {
		script, err := d.domain.QA.CreateScript(ctx, cmd)
		if err != nil {
			return result, fmt.Errorf("create script: %w", err)
		}
		scriptIDs[i] = script.ID
		result.Scripts++
	}

	for _, t := range p.texts {
		cmd := t.cmd
		cmd.DocumentID = docIDs[t.document]
		cmd.ScriptID = scriptIDs[t.script]
		if _, err := d.domain.QA.RegisterText(ctx, cmd); err != nil {
			return result, fmt.Errorf("register text: %w", err)
		}
		result.Texts++
	}

	return result, nil
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var so seedOptions

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate a development database with generated data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := newSeedPlan(so)
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app) error {
				result, err := plan.apply(ctx, a)
				if perr := printJSON(cmd.OutOrStdout(), result); perr != nil && err == nil {
					err = perr
				}
				return err
			})
		},
	}

	cmd.Flags().Int64Var(&so.seed, "seed", 1, "Random seed; the same seed produces the same data")
	cmd.Flags().IntVar(&so.categories, "categories", 4, "General categories to create")
	cmd.Flags().IntVar(&so.families, "families", 3, "Product families per category")
	cmd.Flags().IntVar(&so.types, "types", 3, "Product types per family")
	cmd.Flags().IntVar(&so.products, "products", 200, "Products to create")
	cmd.Flags().IntVar(&so.documents, "documents", 150, "Documents to upload")
	cmd.Flags().IntVar(&so.scripts, "scripts", 2, "Extraction scripts to create")
	cmd.Flags().IntVar(&so.groups, "groups", 3, "Distinct document data groups")

	return cmd
}
