package pathfinding

import "context"

// generator drives the expander under a sequence of PathType templates,
// accumulating complete candidate paths, per spec.md section 4.4.
type generator struct {
	exp         *expander
	req         PathRequest
	srcIssue    Issue
	dstIssue    Issue
	paymentType PaymentType
}

func newGenerator(exp *expander, req PathRequest, srcIssue, dstIssue Issue) *generator {
	return &generator{
		exp:         exp,
		req:         req,
		srcIssue:    srcIssue,
		dstIssue:    dstIssue,
		paymentType: ClassifyPaymentType(srcIssue, dstIssue),
	}
}

// findPaths runs every template for the generator's PaymentType at level,
// returning the accumulated, deduplicated set of complete candidate paths.
func (g *generator) findPaths(ctx context.Context, level int) ([]Path, error) {
	var complete []Path
	seen := make(map[string]bool)

	for _, template := range templatesFor(g.paymentType, level) {
		paths, err := g.addPathsForType(ctx, template)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			key := pathKey(p)
			if seen[key] {
				continue
			}
			seen[key] = true
			complete = append(complete, p)
		}
	}

	return complete, nil
}

// addPathsForType expands the source element through every NodeType in
// template in order, returning the set of full-length paths it produces.
func (g *generator) addPathsForType(ctx context.Context, template PathType) ([]Path, error) {
	if len(template) == 0 {
		return nil, nil
	}

	source := Path{AccountHop(g.req.SrcAccount, g.srcIssue)}
	current := []Path{source}

	for i := 1; i < len(template); i++ {
		node := template[i]
		flags := flagsFor(node, i == len(template)-1)

		next, err := g.exp.addLinks(ctx, current, flags)
		if err != nil {
			return nil, err
		}
		current = next
		if len(current) == 0 {
			break
		}
	}

	return current, nil
}

// pathKey produces a stable, comparable key used to deduplicate completed
// paths against one another.
func pathKey(p Path) string {
	buf := make([]byte, 0, len(p)*41)
	for _, el := range p {
		if el.IsBook {
			buf = append(buf, 'B')
			buf = append(buf, el.Issue.Issuer[:]...)
			buf = append(buf, []byte(el.Issue.Currency)...)
		} else {
			buf = append(buf, 'A')
			buf = append(buf, el.Account[:]...)
		}
		buf = append(buf, 0)
	}
	return string(buf)
}
