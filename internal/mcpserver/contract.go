package mcpserver

const fence = "```"

// RecipeFormatContract describes the recipe file format that LLM consumers
// should follow when reading or authoring recipes.
const RecipeFormatContract = `# Cookbook Recipe Format

Each recipe is one Markdown file named <slug>.md. The slug is the lowercased
title with spaces turned into dashes and anything other than letters, digits,
underscores and dashes removed.

## Frontmatter

The file starts with a header between two lines containing exactly ` + "`---`" + `.
Only a small grammar is understood:

- ` + "`key: value`" + ` sets a text field. Keys are letters, digits and underscores.
- ` + "`key:`" + ` followed by lines of ` + "`  - item`" + ` sets a list.
- Anything else is ignored. There is no nesting, quoting or multi-line text.

Fields: title, date (YYYY-MM-DD or ISO-8601), source, category (Breakfast,
Lunch, Dinner, Dessert, Appetizer, Snack), tags (list), prepTime, cookTime,
totalTime, servings, description, heroImage, thumbnailImage, images (list).

## Body

Text before the first section heading is the introduction. Sections start with
a level-4 heading (` + "`####`" + `); the label may be wrapped in ` + "`**`" + `.

- **Ingredients**: one ` + "`* item`" + ` per line. A line ` + "`**Label:**`" + ` starts a
  sub-group.
- **Instructions**: numbered steps ` + "`1. ...`" + `. Indented ` + "`*`" + ` lines belong to the
  step above.

Other sections are ignored. Legacy content uses level-3 headings (` + "`###`" + `)
and may add a **Notes** section.

## Images

Upload with the upload_image tool and reference the returned URL
(` + "`/images/<file>`" + `) in heroImage or thumbnailImage.

## Example

` + fence + `markdown
---
title: Lemon Tart
date: 2025-03-01
source: Family
category: Dessert
tags:
  - citrus
  - baking
prepTime: 30 min
cookTime: 25 min
totalTime: 55 min
servings: 8
heroImage: /images/lemon-tart.webp
---
Bright and sharp.

#### Ingredients
**For the crust:**
* 200g flour
* 100g butter

#### Instructions
1. Blind bake the crust.
   * until just golden
2. Fill and bake.
` + fence + `
`
