package redis

const (
	// addTransitionScript atomically stores a transition and indexes it by time
	addTransitionScript = `
local transition_key = KEYS[1]  -- nighttime:transition:{id}
local index_key = KEYS[2]       -- nighttime:transitions

local id = ARGV[1]
local timestamp = ARGV[2]
local source = ARGV[3]
local from = ARGV[4]
local to = ARGV[5]
local score = ARGV[6]

redis.call('HSET', transition_key,
  'id', id,
  'timestamp', timestamp,
  'source', source,
  'from', from,
  'to', to
)
redis.call('ZADD', index_key, score, id)

return 'OK'
`

	// deleteTransitionsBeforeScript removes every transition scored below the
	// cutoff together with its hash and returns how many went
	deleteTransitionsBeforeScript = `
local index_key = KEYS[1]       -- nighttime:transitions
local prefix = ARGV[1]          -- nighttime:transition:
local cutoff = ARGV[2]

local ids = redis.call('ZRANGEBYSCORE', index_key, '-inf', '(' .. cutoff)
for _, id in ipairs(ids) do
  redis.call('DEL', prefix .. id)
end
if #ids > 0 then
  redis.call('ZREMRANGEBYSCORE', index_key, '-inf', '(' .. cutoff)
end

return #ids
`
)
