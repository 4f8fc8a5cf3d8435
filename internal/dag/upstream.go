package dag

// ComputeUpstream inverts the declared downstream relation. The result has
// an entry for every input group (possibly empty) listing the groups that
// named it as downstream, in the order they were encountered while scanning
// the input. Downstream names that are not in the input are skipped.
func ComputeUpstream[N Node](groups []N) map[string][]string {
	return buildUpstream(groups, nil)
}

// buildUpstream is ComputeUpstream with an optional hook that is called for
// every skipped downstream reference.
func buildUpstream[N Node](groups []N, onMissing func(group, ref string)) map[string][]string {
	upstream := make(map[string][]string, len(groups))
	for _, g := range groups {
		if _, ok := upstream[g.GroupName()]; !ok {
			upstream[g.GroupName()] = []string{}
		}
	}
	for _, g := range groups {
		for _, down := range g.Downstream() {
			if _, ok := upstream[down]; !ok {
				if onMissing != nil {
					onMissing(g.GroupName(), down)
				}
				continue
			}
			upstream[down] = append(upstream[down], g.GroupName())
		}
	}
	return upstream
}
